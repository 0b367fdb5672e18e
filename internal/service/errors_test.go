package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"go-cake-store/internal/model"
	"go-cake-store/pkg/database"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		kind      Kind
		retryable bool
	}{
		{"validation", invalid("op", ErrTenantRequired), KindValidation, false},
		{"not found", notFound("op", ErrProductNotFound), KindNotFound, false},
		{"business rule", businessRule("op", ErrFlavorUnavailable), KindBusinessRule, false},
		{"transient store", storeErr("op", &pgconn.PgError{Code: database.CodeSerializationFailure}), KindStore, true},
		{"lost insert race", storeErr("op", &pgconn.PgError{Code: database.CodeUniqueViolation}), KindStore, true},
		{"deadline", storeErr("op", context.DeadlineExceeded), KindStore, true},
		{"permanent store", storeErr("op", errors.New("syntax error")), KindStore, false},
		{"wrapped", fmt.Errorf("handler: %w", notFound("op", ErrLineNotFound)), KindNotFound, false},
		{"untyped", errors.New("boom"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}

func TestStoreErrKeepsTypedErrors(t *testing.T) {
	typed := businessRule("cart.AddToCart", ErrQuantityExceedsLimit)
	assert.Same(t, typed, storeErr("other", typed))
}

func TestErrorMessageHidesStoreDetails(t *testing.T) {
	err := storeErr("op", errors.New(`pq: password authentication failed for user "cake"`))
	var typed *Error
	assert.True(t, errors.As(err, &typed))
	assert.Equal(t, "internal error", typed.Message())

	rule := businessRule("op", ErrSizeUnavailable)
	assert.Equal(t, ErrSizeUnavailable.Error(), rule.Message())
	assert.Equal(t, "op: "+ErrSizeUnavailable.Error(), rule.Error())
}

func TestCheckQuantity(t *testing.T) {
	assert.True(t, IsValidation(checkQuantity("op", 0)))
	assert.NoError(t, checkQuantity("op", 1))
	assert.NoError(t, checkQuantity("op", model.MaxLineQuantity))
	assert.True(t, IsQuantityExceedsLimit(checkQuantity("op", model.MaxLineQuantity+1)))
}

func TestUnitPrice(t *testing.T) {
	promo := int64(3900)
	size := &model.Size{PriceModifier: 1200}

	assert.Equal(t, int64(6200), UnitPrice(&model.Product{BasePrice: 5000}, size))
	assert.Equal(t, int64(5100), UnitPrice(&model.Product{BasePrice: 5000, PromotionalPrice: &promo}, size))
	assert.Equal(t, int64(5100*7), LineTotal(5100, 7))
}

func TestNormalization(t *testing.T) {
	assert.Equal(t, 12, normalizePageSize(7))
	assert.Equal(t, 36, normalizePageSize(36))
	assert.Equal(t, 3, totalPages(25, 12))
	assert.Equal(t, 2, totalPages(24, 12))
	assert.Zero(t, totalPages(0, 12))
	assert.Equal(t, 24, pageOffset(3, 12))
	assert.Equal(t, math.MaxInt, pageOffset(math.MaxInt, 36))
	assert.Equal(t, []uint{2, 5}, normalizeIDs([]uint{5, 0, 2, 5}))
	assert.Nil(t, normalizeIDs([]uint{0, 0}))
}
