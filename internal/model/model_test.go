package model

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

// A gorm default on a bool column turns an explicit false into the default
// on insert, so withdrawn options and hidden products must not carry one.
func TestAvailabilityFlagsHaveNoInsertDefault(t *testing.T) {
	cases := []struct {
		model  interface{}
		column string
	}{
		{&Product{}, "is_available"},
		{&Product{}, "is_active"},
		{&ProductFlavor{}, "available"},
		{&ProductSize{}, "available"},
	}
	cache := &sync.Map{}
	for _, tc := range cases {
		s, err := schema.Parse(tc.model, cache, schema.NamingStrategy{})
		require.NoError(t, err)
		field := s.LookUpField(tc.column)
		require.NotNil(t, field, tc.column)
		assert.False(t, field.HasDefaultValue, "%s.%s", s.Table, tc.column)
		assert.True(t, field.NotNull, "%s.%s", s.Table, tc.column)
	}
}

func TestPurchasable(t *testing.T) {
	p := &Product{IsActive: true, IsAvailable: true}
	assert.True(t, p.Purchasable())

	p.IsAvailable = false
	assert.False(t, p.Purchasable())

	p.IsAvailable = true
	p.DeletedAt.Valid = true
	assert.False(t, p.Purchasable())
}
