package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-cake-store/internal/model"
	"go-cake-store/internal/repository"
	"go-cake-store/pkg/lock"
	"go-cake-store/pkg/logger"
	"go-cake-store/pkg/metrics"
	"go-cake-store/pkg/tracing"
	"go-cake-store/pkg/validator"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AddToCartParams struct {
	ProductID uint    `validate:"id_required"`
	FlavorID  uint    `validate:"id_required"`
	SizeID    uint    `validate:"id_required"`
	Quantity  int     `validate:"required"`
	Notes     *string `validate:"omitempty,max=500"`
}

// CartLineResult is the state of a line right after a write.
type CartLineResult struct {
	ID         uint  `json:"id"`
	Quantity   int   `json:"quantity"`
	UnitPrice  int64 `json:"unit_price"`
	TotalPrice int64 `json:"total_price"`
	Merged     bool  `json:"merged"`
}

type CartView struct {
	Items     []model.CartLineView `json:"items"`
	Subtotal  int64                `json:"subtotal"`
	ItemCount int                  `json:"item_count"`
}

// CartNotifier receives committed cart changes. Implementations must not block.
type CartNotifier interface {
	NotifyCart(tenantID, userID uint, event model.CartEvent)
}

type noopNotifier struct{}

func (noopNotifier) NotifyCart(uint, uint, model.CartEvent) {}

type CartService interface {
	AddToCart(ctx context.Context, tenantID, userID uint, params AddToCartParams) (*CartLineResult, error)
	GetCart(ctx context.Context, tenantID, userID uint) (*CartView, error)
	UpdateCartItem(ctx context.Context, tenantID, userID, lineID uint, quantity int) (*CartLineResult, error)
	RemoveCartItem(ctx context.Context, tenantID, userID, lineID uint) error
	ClearCart(ctx context.Context, tenantID, userID uint) error
}

type cartService struct {
	repo        repository.CartRepository
	locker      lock.Locker
	notifier    CartNotifier
	maxAttempts int
	tracer      trace.Tracer
}

func NewCartService(repo repository.CartRepository, locker lock.Locker, notifier CartNotifier, maxAttempts int) CartService {
	if locker == nil {
		locker = lock.NoopLocker{}
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &cartService{
		repo:        repo,
		locker:      locker,
		notifier:    notifier,
		maxAttempts: maxAttempts,
		tracer:      tracing.Tracer("cart"),
	}
}

func (s *cartService) AddToCart(ctx context.Context, tenantID, userID uint, params AddToCartParams) (*CartLineResult, error) {
	const op = "cart.AddToCart"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	if err := requireIdentity(op, tenantID, userID); err != nil {
		return nil, err
	}
	if errs := validator.ValidateStruct(&params); len(errs) > 0 {
		return nil, invalidStruct(op, errs)
	}
	if err := checkQuantity(op, params.Quantity); err != nil {
		s.record("add", err)
		return nil, err
	}

	key := model.CartKey{
		TenantID:  tenantID,
		UserID:    userID,
		ProductID: params.ProductID,
		FlavorID:  params.FlavorID,
		SizeID:    params.SizeID,
	}
	span.SetAttributes(attribute.String("cart.key", key.String()), attribute.Int("cart.quantity", params.Quantity))

	unlock, err := s.locker.Lock(ctx, key.String())
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, retryableStoreErr(op, ErrLineBusy)
		}
		return nil, storeErr(op, err)
	}
	defer unlock()

	var result *CartLineResult
	err = s.retry(ctx, func() error {
		result = nil
		return s.repo.Atomic(ctx, func(tx repository.CartTx) error {
			unitPrice, err := s.price(op, tx, tenantID, params.ProductID, params.FlavorID, params.SizeID)
			if err != nil {
				return err
			}

			line := &model.CartItem{
				TenantID:   tenantID,
				UserID:     userID,
				ProductID:  params.ProductID,
				FlavorID:   params.FlavorID,
				SizeID:     params.SizeID,
				Quantity:   params.Quantity,
				UnitPrice:  unitPrice,
				TotalPrice: LineTotal(unitPrice, params.Quantity),
				Notes:      params.Notes,
			}
			inserted, err := tx.InsertLineIfAbsent(line)
			if err != nil {
				return storeErr(op, err)
			}
			if inserted {
				result = lineResult(line, false)
				return nil
			}

			existing, err := tx.LockLine(key)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// The conflicting line was removed after our insert attempt.
					return retryableStoreErr(op, err)
				}
				return storeErr(op, err)
			}

			newQuantity := existing.Quantity + params.Quantity
			if newQuantity > model.MaxLineQuantity {
				return businessRule(op, fmt.Errorf("%w: item already has %d, adding %d",
					ErrQuantityExceedsLimit, existing.Quantity, params.Quantity))
			}

			existing.Quantity = newQuantity
			existing.UnitPrice = unitPrice
			existing.TotalPrice = LineTotal(unitPrice, newQuantity)
			if params.Notes != nil {
				existing.Notes = params.Notes
			}
			if err := tx.SaveLine(existing); err != nil {
				return storeErr(op, err)
			}
			result = lineResult(existing, true)
			return nil
		})
	})
	if err != nil {
		err = storeErr(op, err)
		s.record("add", err)
		logger.FromContext(ctx).Warn("add to cart failed",
			zap.String("cart_key", key.String()),
			zap.Int("quantity", params.Quantity),
			zap.Error(err),
		)
		return nil, err
	}

	outcome := "created"
	action := "item_added"
	if result.Merged {
		outcome = "merged"
		action = "item_merged"
	}
	metrics.CartWrites.WithLabelValues("add", outcome).Inc()
	s.notify(tenantID, userID, action, result)

	logger.FromContext(ctx).Info("cart line written",
		zap.String("cart_key", key.String()),
		zap.Uint("line_id", result.ID),
		zap.Int("quantity", result.Quantity),
		zap.Bool("merged", result.Merged),
	)
	return result, nil
}

func (s *cartService) GetCart(ctx context.Context, tenantID, userID uint) (*CartView, error) {
	const op = "cart.GetCart"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	if err := requireIdentity(op, tenantID, userID); err != nil {
		return nil, err
	}

	lines, err := s.repo.ListLines(ctx, tenantID, userID)
	if err != nil {
		return nil, storeErr(op, err)
	}

	view := &CartView{Items: nonNil(lines)}
	for _, l := range view.Items {
		view.Subtotal += l.TotalPrice
		view.ItemCount += l.Quantity
	}
	return view, nil
}

// UpdateCartItem sets a line to an absolute quantity, repricing it from the current catalog.
func (s *cartService) UpdateCartItem(ctx context.Context, tenantID, userID, lineID uint, quantity int) (*CartLineResult, error) {
	const op = "cart.UpdateCartItem"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	if err := requireIdentity(op, tenantID, userID); err != nil {
		return nil, err
	}
	if lineID == 0 {
		return nil, notFound(op, ErrLineNotFound)
	}
	if err := checkQuantity(op, quantity); err != nil {
		s.record("update", err)
		return nil, err
	}

	var result *CartLineResult
	err := s.retry(ctx, func() error {
		result = nil
		return s.repo.Atomic(ctx, func(tx repository.CartTx) error {
			line, err := tx.LockLineByID(tenantID, userID, lineID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return notFound(op, ErrLineNotFound)
				}
				return storeErr(op, err)
			}

			unitPrice, err := s.price(op, tx, tenantID, line.ProductID, line.FlavorID, line.SizeID)
			if err != nil {
				return err
			}

			line.Quantity = quantity
			line.UnitPrice = unitPrice
			line.TotalPrice = LineTotal(unitPrice, quantity)
			if err := tx.SaveLine(line); err != nil {
				return storeErr(op, err)
			}
			result = lineResult(line, false)
			return nil
		})
	})
	if err != nil {
		err = storeErr(op, err)
		s.record("update", err)
		return nil, err
	}

	metrics.CartWrites.WithLabelValues("update", "updated").Inc()
	s.notify(tenantID, userID, "item_updated", result)
	return result, nil
}

func (s *cartService) RemoveCartItem(ctx context.Context, tenantID, userID, lineID uint) error {
	const op = "cart.RemoveCartItem"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	if err := requireIdentity(op, tenantID, userID); err != nil {
		return err
	}
	if lineID == 0 {
		return notFound(op, ErrLineNotFound)
	}

	removed, err := s.repo.DeleteLine(ctx, tenantID, userID, lineID)
	if err != nil {
		err = storeErr(op, err)
		s.record("remove", err)
		return err
	}
	if !removed {
		return notFound(op, ErrLineNotFound)
	}

	metrics.CartWrites.WithLabelValues("remove", "removed").Inc()
	s.notifier.NotifyCart(tenantID, userID, model.CartEvent{Type: "cart_updated", Action: "item_removed", LineID: lineID})
	return nil
}

func (s *cartService) ClearCart(ctx context.Context, tenantID, userID uint) error {
	const op = "cart.ClearCart"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	if err := requireIdentity(op, tenantID, userID); err != nil {
		return err
	}

	n, err := s.repo.Clear(ctx, tenantID, userID)
	if err != nil {
		err = storeErr(op, err)
		s.record("clear", err)
		return err
	}

	metrics.CartWrites.WithLabelValues("clear", "cleared").Inc()
	logger.FromContext(ctx).Info("cart cleared", zap.Uint("user_id", userID), zap.Int64("lines", n))
	s.notifier.NotifyCart(tenantID, userID, model.CartEvent{Type: "cart_updated", Action: "cart_cleared"})
	return nil
}

// price checks the product, flavor and size are purchasable and returns the unit price.
func (s *cartService) price(op string, tx repository.CartTx, tenantID, productID, flavorID, sizeID uint) (int64, error) {
	product, err := tx.FindProduct(tenantID, productID)
	if err != nil {
		return 0, lookupErr(op, err, ErrProductNotFound)
	}
	if !product.IsActive {
		return 0, notFound(op, ErrProductNotFound)
	}
	if !product.IsAvailable {
		return 0, businessRule(op, ErrProductUnavailable)
	}

	flavor, err := tx.FindProductFlavor(tenantID, productID, flavorID)
	if err != nil {
		return 0, lookupErr(op, err, ErrFlavorNotFound)
	}
	if !flavor.Available {
		return 0, businessRule(op, ErrFlavorUnavailable)
	}

	size, err := tx.FindProductSize(tenantID, productID, sizeID)
	if err != nil {
		return 0, lookupErr(op, err, ErrSizeNotFound)
	}
	if !size.Available {
		return 0, businessRule(op, ErrSizeUnavailable)
	}

	return UnitPrice(product, size.Size), nil
}

// retry reruns fn while it fails with a transient store error.
func (s *cartService) retry(ctx context.Context, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := fn()
		if err != nil && !IsRetryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(s.maxAttempts)))
	return err
}

func (s *cartService) record(operation string, err error) {
	outcome := "failed"
	if IsBusinessRule(err) || IsValidation(err) || IsNotFound(err) {
		outcome = "rejected"
	}
	metrics.CartWrites.WithLabelValues(operation, outcome).Inc()
}

func (s *cartService) notify(tenantID, userID uint, action string, r *CartLineResult) {
	s.notifier.NotifyCart(tenantID, userID, model.CartEvent{
		Type:       "cart_updated",
		Action:     action,
		LineID:     r.ID,
		Quantity:   r.Quantity,
		UnitPrice:  r.UnitPrice,
		TotalPrice: r.TotalPrice,
	})
}

func lookupErr(op string, err, missing error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(op, missing)
	}
	return storeErr(op, err)
}

func lineResult(line *model.CartItem, merged bool) *CartLineResult {
	return &CartLineResult{
		ID:         line.ID,
		Quantity:   line.Quantity,
		UnitPrice:  line.UnitPrice,
		TotalPrice: line.TotalPrice,
		Merged:     merged,
	}
}
