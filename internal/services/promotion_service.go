package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/ayvora/api/internal/domain"
	"github.com/ayvora/api/internal/repositories"
)

const (
	promoIDPrefix        = "promo_"
	promoBatchCodeLength = 4
	promoBatchMaxCount   = 500
	promoCodeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// PromotionServiceDeps bundles collaborators required to construct a PromotionService.
type PromotionServiceDeps struct {
	Promotions  repositories.PromoCodeRepository
	Clock       func() time.Time
	IDGenerator func() string
	// RandomCode returns n random characters from the promo code alphabet.
	RandomCode func(n int) string
	Logger     func(context.Context, string, map[string]any)
}

type promotionService struct {
	promos     repositories.PromoCodeRepository
	clock      func() time.Time
	newID      func() string
	randomCode func(int) string
	logger     func(context.Context, string, map[string]any)
}

// NewPromotionService wires dependencies into a concrete PromotionService implementation.
func NewPromotionService(deps PromotionServiceDeps) (PromotionService, error) {
	if deps.Promotions == nil {
		return nil, errors.New("promotion service: promo repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return promoIDPrefix + ulid.Make().String()
		}
	}
	random := deps.RandomCode
	if random == nil {
		random = randomPromoChars
	}

	return &promotionService{
		promos:     deps.Promotions,
		clock:      func() time.Time { return clock().UTC() },
		newID:      idGen,
		randomCode: random,
		logger:     deps.Logger,
	}, nil
}

// NormalizePromoCode applies the canonical code form used by the ledger.
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *promotionService) Validate(ctx context.Context, code string, subtotal int64) (PromoCode, error) {
	normalized := NormalizePromoCode(code)
	if normalized == "" {
		return PromoCode{}, fmt.Errorf("%w: empty code", ErrPromotionInvalid)
	}

	promo, err := s.promos.FindByCode(ctx, normalized)
	if err != nil {
		return PromoCode{}, s.mapLookupError(err)
	}

	if !promo.Active {
		return PromoCode{}, fmt.Errorf("%w: code %s is inactive", ErrPromotionInvalid, normalized)
	}
	if promo.Exhausted() {
		return PromoCode{}, fmt.Errorf("%w: code %s is fully redeemed", ErrPromotionInvalid, normalized)
	}
	if subtotal < promo.MinOrderValue {
		return PromoCode{}, fmt.Errorf("%w: requires order of at least %d", ErrPromotionMinOrderNotMet, promo.MinOrderValue)
	}

	return promo, nil
}

func (s *promotionService) RecordRedemption(ctx context.Context, code string) error {
	normalized := NormalizePromoCode(code)
	if normalized == "" {
		return fmt.Errorf("%w: empty code", ErrPromotionInvalid)
	}

	err := s.promos.Redeem(ctx, normalized)
	if err == nil {
		s.log(ctx, "promotion.redeemed", map[string]any{"code": normalized})
		return nil
	}

	var redemptionErr *repositories.RedemptionError
	if errors.As(err, &redemptionErr) {
		switch redemptionErr.Code {
		case repositories.RedemptionErrorExhausted:
			return fmt.Errorf("%w: code %s", ErrPromotionRedemptionConflict, normalized)
		case repositories.RedemptionErrorNotFound:
			return fmt.Errorf("%w: code %s", ErrPromotionInvalid, normalized)
		case repositories.RedemptionErrorInvalidInput:
			return fmt.Errorf("%w: %s", ErrPromotionInvalidInput, redemptionErr.Message)
		}
	}
	return fmt.Errorf("%w: %v", ErrPromotionUnavailable, err)
}

func (s *promotionService) Create(ctx context.Context, cmd CreatePromoCommand) (PromoCode, error) {
	promo, err := s.buildPromo(cmd)
	if err != nil {
		return PromoCode{}, err
	}

	// Reject duplicate codes up front; the ledger keys entries by id, not code.
	if _, err := s.promos.FindByCode(ctx, promo.Code); err == nil {
		return PromoCode{}, fmt.Errorf("%w: code %s already exists", ErrPromotionConflict, promo.Code)
	} else if mapped := s.mapLookupError(err); !errors.Is(mapped, ErrPromotionInvalid) {
		return PromoCode{}, mapped
	}

	if err := s.promos.Insert(ctx, promo); err != nil {
		return PromoCode{}, s.mapMutationError(err)
	}

	s.log(ctx, "promotion.created", map[string]any{"code": promo.Code, "id": promo.ID})
	return promo, nil
}

func (s *promotionService) CreateBatch(ctx context.Context, cmd CreatePromoBatchCommand) ([]PromoCode, error) {
	prefix := NormalizePromoCode(cmd.Prefix)
	if prefix == "" {
		return nil, fmt.Errorf("%w: prefix is required", ErrPromotionInvalidInput)
	}
	if cmd.Count <= 0 || cmd.Count > promoBatchMaxCount {
		return nil, fmt.Errorf("%w: count must be between 1 and %d", ErrPromotionInvalidInput, promoBatchMaxCount)
	}
	if err := validateDiscount(cmd.Type, cmd.Value); err != nil {
		return nil, err
	}
	scope, scopeTarget, err := normalizeScope(cmd.Scope, cmd.ScopeTarget)
	if err != nil {
		return nil, err
	}
	if cmd.MinOrderValue < 0 || cmd.MaxDiscount < 0 {
		return nil, fmt.Errorf("%w: amounts must not be negative", ErrPromotionInvalidInput)
	}

	now := s.clock()
	seen := make(map[string]struct{}, cmd.Count)
	promos := make([]domain.PromoCode, 0, cmd.Count)
	for len(promos) < cmd.Count {
		code := prefix + s.randomCode(promoBatchCodeLength)
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		promos = append(promos, domain.PromoCode{
			ID:            s.newID(),
			Code:          code,
			Title:         strings.TrimSpace(cmd.Title),
			Type:          cmd.Type,
			Value:         cmd.Value,
			Scope:         scope,
			ScopeTarget:   scopeTarget,
			MinOrderValue: cmd.MinOrderValue,
			MaxDiscount:   cmd.MaxDiscount,
			Usage:         domain.UsageSingle,
			MaxUses:       1,
			Active:        true,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	if err := s.promos.InsertBatch(ctx, promos); err != nil {
		return nil, s.mapMutationError(err)
	}

	s.log(ctx, "promotion.batch_created", map[string]any{"prefix": prefix, "count": len(promos)})
	return promos, nil
}

func (s *promotionService) Delete(ctx context.Context, promoID string) error {
	if strings.TrimSpace(promoID) == "" {
		return fmt.Errorf("%w: promo id is required", ErrPromotionInvalidInput)
	}
	if err := s.promos.Delete(ctx, promoID); err != nil {
		return s.mapMutationError(err)
	}
	return nil
}

func (s *promotionService) SetActive(ctx context.Context, promoID string, active bool) error {
	if strings.TrimSpace(promoID) == "" {
		return fmt.Errorf("%w: promo id is required", ErrPromotionInvalidInput)
	}
	if err := s.promos.SetActive(ctx, promoID, active); err != nil {
		return s.mapMutationError(err)
	}
	return nil
}

func (s *promotionService) List(ctx context.Context) ([]PromoCode, error) {
	promos, err := s.promos.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPromotionUnavailable, err)
	}
	return promos, nil
}

func (s *promotionService) buildPromo(cmd CreatePromoCommand) (domain.PromoCode, error) {
	code := NormalizePromoCode(cmd.Code)
	if code == "" {
		return domain.PromoCode{}, fmt.Errorf("%w: code is required", ErrPromotionInvalidInput)
	}
	if err := validateDiscount(cmd.Type, cmd.Value); err != nil {
		return domain.PromoCode{}, err
	}
	scope, scopeTarget, err := normalizeScope(cmd.Scope, cmd.ScopeTarget)
	if err != nil {
		return domain.PromoCode{}, err
	}
	if cmd.MinOrderValue < 0 || cmd.MaxDiscount < 0 {
		return domain.PromoCode{}, fmt.Errorf("%w: amounts must not be negative", ErrPromotionInvalidInput)
	}

	usage := cmd.Usage
	if usage == "" {
		usage = domain.UsageSingle
	}
	maxUses := cmd.MaxUses
	switch usage {
	case domain.UsageSingle:
		maxUses = 1
	case domain.UsageMulti:
		if maxUses <= 0 {
			return domain.PromoCode{}, fmt.Errorf("%w: multi-use codes need maxUses > 0", ErrPromotionInvalidInput)
		}
	default:
		return domain.PromoCode{}, fmt.Errorf("%w: unknown usage limit %q", ErrPromotionInvalidInput, usage)
	}

	now := s.clock()
	return domain.PromoCode{
		ID:            s.newID(),
		Code:          code,
		Title:         strings.TrimSpace(cmd.Title),
		Type:          cmd.Type,
		Value:         cmd.Value,
		Scope:         scope,
		ScopeTarget:   scopeTarget,
		MinOrderValue: cmd.MinOrderValue,
		MaxDiscount:   cmd.MaxDiscount,
		Usage:         usage,
		MaxUses:       maxUses,
		Active:        cmd.Active,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func validateDiscount(discountType domain.DiscountType, value int64) error {
	switch discountType {
	case domain.DiscountPercentage:
		if value <= 0 || value > 100 {
			return fmt.Errorf("%w: percentage must be between 1 and 100", ErrPromotionInvalidInput)
		}
	case domain.DiscountFixed:
		if value <= 0 {
			return fmt.Errorf("%w: fixed amount must be positive", ErrPromotionInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown discount type %q", ErrPromotionInvalidInput, discountType)
	}
	return nil
}

// normalizeScope validates the scope/target pair. Category and product scopes
// require a target; an all scope carries none.
func normalizeScope(scope domain.PromoScope, target string) (domain.PromoScope, string, error) {
	target = strings.TrimSpace(target)
	switch scope {
	case "", domain.ScopeAll:
		return domain.ScopeAll, "", nil
	case domain.ScopeCategory, domain.ScopeProduct:
		if target == "" {
			return "", "", fmt.Errorf("%w: scope %s requires a target", ErrPromotionInvalidInput, scope)
		}
		return scope, target, nil
	default:
		return "", "", fmt.Errorf("%w: unknown scope %q", ErrPromotionInvalidInput, scope)
	}
}

// mapLookupError folds ledger read failures into the validation taxonomy. A
// missing code is an invalid code; everything else is ledger unavailability,
// never misreported as "invalid".
func (s *promotionService) mapLookupError(err error) error {
	if err == nil {
		return nil
	}
	var redemptionErr *repositories.RedemptionError
	if errors.As(err, &redemptionErr) && redemptionErr.Code == repositories.RedemptionErrorInvalidInput {
		return fmt.Errorf("%w: %s", ErrPromotionInvalid, redemptionErr.Message)
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: unknown code", ErrPromotionInvalid)
	}
	return fmt.Errorf("%w: %v", ErrPromotionUnavailable, err)
}

func (s *promotionService) mapMutationError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return ErrPromotionNotFound
		case repoErr.IsConflict():
			return ErrPromotionConflict
		}
	}
	return fmt.Errorf("%w: %v", ErrPromotionUnavailable, err)
}

func (s *promotionService) log(ctx context.Context, event string, fields map[string]any) {
	if s == nil || s.logger == nil {
		return
	}
	s.logger(ctx, event, fields)
}

func randomPromoChars(n int) string {
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the platform source is broken; fall back
		// to ULID entropy rather than panicking mid-request.
		id := ulid.Make().String()
		for i := range buf {
			buf[i] = id[i%len(id)]
		}
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = promoCodeAlphabet[int(b)%len(promoCodeAlphabet)]
	}
	return string(out)
}
