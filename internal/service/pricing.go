package service

import (
	"fmt"
	"math"
	"sort"

	"go-cake-store/internal/model"
)

// Page sizes a listing may use. Anything else falls back to DefaultPageSize.
var allowedPageSizes = map[int]bool{12: true, 24: true, 36: true}

const (
	DefaultPageSize     = 12
	DefaultRelatedLimit = 4
	MaxRelatedLimit     = 24
)

// UnitPrice is the selling price of a product in a size.
func UnitPrice(p *model.Product, s *model.Size) int64 {
	return p.SellingPrice() + s.PriceModifier
}

func LineTotal(unitPrice int64, quantity int) int64 {
	return unitPrice * int64(quantity)
}

// checkQuantity rejects non-positive quantities as invalid input and
// quantities above the line ceiling as a business rule violation.
func checkQuantity(op string, quantity int) error {
	if quantity < 1 {
		return invalid(op, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput))
	}
	if quantity > model.MaxLineQuantity {
		return businessRule(op, fmt.Errorf("%w: requested %d", ErrQuantityExceedsLimit, quantity))
	}
	return nil
}

func normalizePageSize(size int) int {
	if allowedPageSizes[size] {
		return size
	}
	return DefaultPageSize
}

// pageOffset saturates instead of overflowing for absurd page numbers, so
// such pages land past the end of any result set.
func pageOffset(page, pageSize int) int {
	if page-1 > math.MaxInt/pageSize {
		return math.MaxInt
	}
	return (page - 1) * pageSize
}

func totalPages(total int64, pageSize int) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// normalizeIDs turns a caller id list into a sorted set without zeros.
func normalizeIDs(ids []uint) []uint {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[uint]bool, len(ids))
	set := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		set = append(set, id)
	}
	sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })
	if len(set) == 0 {
		return nil
	}
	return set
}

func requireIdentity(op string, tenantID, userID uint) error {
	if tenantID == 0 {
		return invalid(op, ErrTenantRequired)
	}
	if userID == 0 {
		return invalid(op, ErrUserRequired)
	}
	return nil
}
