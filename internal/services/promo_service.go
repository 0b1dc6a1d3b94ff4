package services

import (
	"context"
	"errors"
	"time"

	"bakehouse/internal/config"
	"bakehouse/internal/models"
	"bakehouse/internal/pricing"
	"bakehouse/internal/repositories/interfaces"
	"bakehouse/internal/utils"
	"bakehouse/internal/validators"
	"bakehouse/pkg/cache"
	"bakehouse/pkg/logger"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const autoApplyCandidatesKey = utils.CacheAutoApplyPrefix + "candidates"

type PromoService interface {
	CreatePromo(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error)
	UpdatePromo(ctx context.Context, id primitive.ObjectID, promo *models.PromoCode) (*models.PromoCode, error)
	GetPromo(ctx context.Context, id primitive.ObjectID) (*models.PromoCode, error)
	ListPromos(ctx context.Context, params *utils.PaginationParams) ([]*models.PromoCode, int64, error)
	DeactivatePromo(ctx context.Context, id primitive.ObjectID) error

	// ValidateCode checks code for an order and returns the promo with the
	// discount it grants. customerID may be nil for anonymous carts.
	ValidateCode(ctx context.Context, code string, customerID *primitive.ObjectID, subtotal, deliveryFee decimal.Decimal, now time.Time) (*models.PromoCode, pricing.PromoResult, error)

	// BestAutoApply returns the auto-apply promo with the highest estimated
	// savings for orderTotal, or nil.
	BestAutoApply(ctx context.Context, orderTotal decimal.Decimal, customerID *primitive.ObjectID, now time.Time) (*models.PromoCode, error)

	Redeem(ctx context.Context, promo *models.PromoCode, customerID, orderID primitive.ObjectID, discount decimal.Decimal) error
	Release(ctx context.Context, orderID primitive.ObjectID) error
}

type promoService struct {
	promoRepo interfaces.PromoRepository
	ledger    interfaces.RedemptionLedger
	cache     cache.Cache
	estimator pricing.Estimator
	cacheTTL  time.Duration
	logger    *logger.Logger
}

func NewPromoService(
	promoRepo interfaces.PromoRepository,
	ledger interfaces.RedemptionLedger,
	c cache.Cache,
	store *config.StoreConfig,
	log *logger.Logger,
) PromoService {
	return &promoService{
		promoRepo: promoRepo,
		ledger:    ledger,
		cache:     c,
		estimator: pricing.Estimator{
			FreeShipping: store.FreeShippingEstimate,
			BuyXGetY:     store.BuyXGetYEstimate,
		},
		cacheTTL: store.AutoApplyCacheTTL,
		logger:   log.WithField("service", "promo"),
	}
}

func (s *promoService) CreatePromo(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error) {
	if errs := validators.ValidatePromoCode(promo); len(errs) > 0 {
		return nil, &ValidationError{Details: errs.Details()}
	}

	if err := s.promoRepo.Create(ctx, promo); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return nil, ErrPromoCodeTaken
		}
		return nil, err
	}

	s.invalidateAutoApply(ctx)
	s.logger.LogPromoEvent(promo.Code, "created", map[string]interface{}{
		"discount_type": promo.DiscountType,
		"auto_apply":    promo.AutoApplyEligible,
	})
	return promo, nil
}

func (s *promoService) UpdatePromo(ctx context.Context, id primitive.ObjectID, promo *models.PromoCode) (*models.PromoCode, error) {
	existing, err := s.GetPromo(ctx, id)
	if err != nil {
		return nil, err
	}

	promo.ID = existing.ID
	promo.UsedCount = existing.UsedCount
	promo.CreatedAt = existing.CreatedAt
	if errs := validators.ValidatePromoCode(promo); len(errs) > 0 {
		return nil, &ValidationError{Details: errs.Details()}
	}

	if err := s.promoRepo.Update(ctx, promo); err != nil {
		switch {
		case errors.Is(err, interfaces.ErrNotFound):
			return nil, ErrPromoNotFound
		case errors.Is(err, interfaces.ErrDuplicate):
			return nil, ErrPromoCodeTaken
		}
		return nil, err
	}

	s.invalidateAutoApply(ctx)
	s.logger.LogPromoEvent(promo.Code, "updated", nil)
	return promo, nil
}

func (s *promoService) GetPromo(ctx context.Context, id primitive.ObjectID) (*models.PromoCode, error) {
	promo, err := s.promoRepo.GetByID(ctx, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, ErrPromoNotFound
	}
	return promo, err
}

func (s *promoService) ListPromos(ctx context.Context, params *utils.PaginationParams) ([]*models.PromoCode, int64, error) {
	return s.promoRepo.List(ctx, params)
}

func (s *promoService) DeactivatePromo(ctx context.Context, id primitive.ObjectID) error {
	if err := s.promoRepo.SetActive(ctx, id, false); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return ErrPromoNotFound
		}
		return err
	}
	s.invalidateAutoApply(ctx)
	return nil
}

func (s *promoService) ValidateCode(ctx context.Context, code string, customerID *primitive.ObjectID, subtotal, deliveryFee decimal.Decimal, now time.Time) (*models.PromoCode, pricing.PromoResult, error) {
	promo, err := s.promoRepo.GetByCode(ctx, validators.NormalizePromoCode(code))
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, pricing.PromoResult{}, ErrPromoNotFound
		}
		return nil, pricing.PromoResult{}, err
	}

	if err := s.checkRedeemable(ctx, promo, customerID, subtotal, now); err != nil {
		s.logger.LogPromoEvent(promo.Code, "rejected", map[string]interface{}{"reason": err.Error()})
		return nil, pricing.PromoResult{}, err
	}

	return promo, pricing.ApplyPromo(promo.Terms(), subtotal, deliveryFee), nil
}

func (s *promoService) checkRedeemable(ctx context.Context, promo *models.PromoCode, customerID *primitive.ObjectID, subtotal decimal.Decimal, now time.Time) error {
	switch {
	case !promo.IsActive:
		return ErrPromoInactive
	case !promo.ValidFrom.IsZero() && now.Before(promo.ValidFrom):
		return ErrPromoNotStarted
	case !promo.ValidUntil.IsZero() && now.After(promo.ValidUntil):
		return ErrPromoExpired
	case !pricing.MeetsMinimum(promo.Terms(), subtotal):
		return ErrPromoMinOrder
	}

	if promo.UsageLimit == 0 && (promo.PerCustomerLimit == 0 || customerID == nil) {
		return nil
	}

	var who primitive.ObjectID
	if customerID != nil {
		who = *customerID
	}
	total, byCustomer, err := s.ledger.Usage(ctx, promo.ID, who)
	if err != nil {
		return err
	}
	if promo.UsageLimit > 0 && total >= promo.UsageLimit {
		return ErrPromoUsageLimit
	}
	if customerID != nil && promo.PerCustomerLimit > 0 && byCustomer >= promo.PerCustomerLimit {
		return ErrPromoCustomerLimit
	}
	return nil
}

func (s *promoService) BestAutoApply(ctx context.Context, orderTotal decimal.Decimal, customerID *primitive.ObjectID, now time.Time) (*models.PromoCode, error) {
	candidates, err := s.autoApplyCandidates(ctx, now)
	if err != nil {
		return nil, err
	}

	byCode := make(map[string]*models.PromoCode, len(candidates))
	terms := make([]pricing.Promo, 0, len(candidates))
	for _, p := range candidates {
		if !pricing.IsRedeemable(p.Terms(), now) {
			continue
		}
		if err := s.checkRedeemable(ctx, p, customerID, orderTotal, now); err != nil {
			if errors.Is(err, ErrPromoMinOrder) || errors.Is(err, ErrPromoUsageLimit) || errors.Is(err, ErrPromoCustomerLimit) {
				continue
			}
			return nil, err
		}
		byCode[p.Code] = p
		terms = append(terms, p.Terms())
	}

	best := s.estimator.SelectBest(terms, orderTotal)
	if best == nil {
		return nil, nil
	}
	return byCode[best.Code], nil
}

// autoApplyCandidates lists auto-apply promos through the cache. Window
// checks are repeated by the caller since entries may outlive a boundary.
func (s *promoService) autoApplyCandidates(ctx context.Context, now time.Time) ([]*models.PromoCode, error) {
	var promos []*models.PromoCode
	err := s.cache.Get(ctx, autoApplyCandidatesKey, &promos)
	if err == nil {
		return promos, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.WithError(err).Warn("Auto-apply cache read failed")
	}

	promos, err = s.promoRepo.ListAutoApply(ctx, now)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, autoApplyCandidatesKey, promos, s.cacheTTL); err != nil {
		s.logger.WithError(err).Warn("Auto-apply cache write failed")
	}
	return promos, nil
}

func (s *promoService) invalidateAutoApply(ctx context.Context) {
	if err := s.cache.Delete(ctx, autoApplyCandidatesKey); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate auto-apply cache")
	}
}

func (s *promoService) Redeem(ctx context.Context, promo *models.PromoCode, customerID, orderID primitive.ObjectID, discount decimal.Decimal) error {
	err := s.ledger.Redeem(ctx, promo, &models.PromoRedemption{
		CustomerID: customerID,
		OrderID:    orderID,
		Discount:   discount,
	})
	switch {
	case err == nil:
	case errors.Is(err, interfaces.ErrDuplicate):
		return nil
	case errors.Is(err, interfaces.ErrUsageLimitReached):
		return ErrPromoUsageLimit
	case errors.Is(err, interfaces.ErrCustomerLimit):
		return ErrPromoCustomerLimit
	default:
		return err
	}

	s.invalidateAutoApply(ctx)
	s.logger.LogPromoEvent(promo.Code, "redeemed", map[string]interface{}{
		"order_id":    orderID.Hex(),
		"customer_id": customerID.Hex(),
		"discount":    discount.StringFixed(2),
	})
	return nil
}

func (s *promoService) Release(ctx context.Context, orderID primitive.ObjectID) error {
	if err := s.ledger.Release(ctx, orderID); err != nil {
		return err
	}
	s.invalidateAutoApply(ctx)
	return nil
}
