package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/ayvora/api/internal/domain"
	"github.com/ayvora/api/internal/repositories"
)

type stubPromoRepository struct {
	findFn        func(context.Context, string) (domain.PromoCode, error)
	redeemFn      func(context.Context, string) error
	insertFn      func(context.Context, domain.PromoCode) error
	insertBatchFn func(context.Context, []domain.PromoCode) error
	deleteFn      func(context.Context, string) error
	setActiveFn   func(context.Context, string, bool) error
	listFn        func(context.Context) ([]domain.PromoCode, error)

	redeemCalls []string
	inserted    []domain.PromoCode
	batches     [][]domain.PromoCode
}

func (s *stubPromoRepository) Insert(ctx context.Context, promo domain.PromoCode) error {
	s.inserted = append(s.inserted, promo)
	if s.insertFn != nil {
		return s.insertFn(ctx, promo)
	}
	return nil
}

func (s *stubPromoRepository) InsertBatch(ctx context.Context, promos []domain.PromoCode) error {
	s.batches = append(s.batches, promos)
	if s.insertBatchFn != nil {
		return s.insertBatchFn(ctx, promos)
	}
	return nil
}

func (s *stubPromoRepository) Delete(ctx context.Context, promoID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, promoID)
	}
	return nil
}

func (s *stubPromoRepository) SetActive(ctx context.Context, promoID string, active bool) error {
	if s.setActiveFn != nil {
		return s.setActiveFn(ctx, promoID, active)
	}
	return nil
}

func (s *stubPromoRepository) FindByCode(ctx context.Context, code string) (domain.PromoCode, error) {
	if s.findFn != nil {
		return s.findFn(ctx, code)
	}
	return domain.PromoCode{}, notFoundRepoError{}
}

func (s *stubPromoRepository) List(ctx context.Context) ([]domain.PromoCode, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubPromoRepository) Redeem(ctx context.Context, code string) error {
	s.redeemCalls = append(s.redeemCalls, code)
	if s.redeemFn != nil {
		return s.redeemFn(ctx, code)
	}
	return nil
}

type notFoundRepoError struct{}

func (notFoundRepoError) Error() string       { return "not found" }
func (notFoundRepoError) IsNotFound() bool    { return true }
func (notFoundRepoError) IsConflict() bool    { return false }
func (notFoundRepoError) IsUnavailable() bool { return false }

type unavailableRepoError struct{}

func (unavailableRepoError) Error() string       { return "unavailable" }
func (unavailableRepoError) IsNotFound() bool    { return false }
func (unavailableRepoError) IsConflict() bool    { return false }
func (unavailableRepoError) IsUnavailable() bool { return true }

func activePromo() domain.PromoCode {
	return domain.PromoCode{
		ID:            "promo_1",
		Code:          "SAVE10",
		Type:          domain.DiscountPercentage,
		Value:         10,
		Scope:         domain.ScopeAll,
		MinOrderValue: 1000,
		Usage:         domain.UsageMulti,
		MaxUses:       5,
		Active:        true,
	}
}

func newTestPromotionService(t *testing.T, repo *stubPromoRepository) PromotionService {
	t.Helper()
	svc, err := NewPromotionService(PromotionServiceDeps{
		Promotions: repo,
		Clock: func() time.Time {
			return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		},
	})
	if err != nil {
		t.Fatalf("new promotion service: %v", err)
	}
	return svc
}

func TestPromotionValidateNormalisesCode(t *testing.T) {
	repo := &stubPromoRepository{}
	var lookedUp string
	repo.findFn = func(_ context.Context, code string) (domain.PromoCode, error) {
		lookedUp = code
		return activePromo(), nil
	}
	svc := newTestPromotionService(t, repo)

	promo, err := svc.Validate(context.Background(), "  save10 ", 2000)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if lookedUp != "SAVE10" {
		t.Fatalf("expected normalised lookup SAVE10, got %s", lookedUp)
	}
	if promo.Code != "SAVE10" {
		t.Fatalf("expected promo SAVE10, got %s", promo.Code)
	}
}

func TestPromotionValidateRejections(t *testing.T) {
	cases := []struct {
		name     string
		promo    domain.PromoCode
		findErr  error
		subtotal int64
		want     error
	}{
		{
			name:     "unknown code",
			findErr:  notFoundRepoError{},
			subtotal: 2000,
			want:     ErrPromotionInvalid,
		},
		{
			name: "inactive code",
			promo: func() domain.PromoCode {
				p := activePromo()
				p.Active = false
				return p
			}(),
			subtotal: 2000,
			want:     ErrPromotionInvalid,
		},
		{
			name: "single use already redeemed",
			promo: func() domain.PromoCode {
				p := activePromo()
				p.Usage = domain.UsageSingle
				p.UsedCount = 1
				return p
			}(),
			subtotal: 2000,
			want:     ErrPromotionInvalid,
		},
		{
			name: "multi use at ceiling",
			promo: func() domain.PromoCode {
				p := activePromo()
				p.UsedCount = 5
				return p
			}(),
			subtotal: 2000,
			want:     ErrPromotionInvalid,
		},
		{
			name:     "below minimum order",
			promo:    activePromo(),
			subtotal: 999,
			want:     ErrPromotionMinOrderNotMet,
		},
		{
			name:     "ledger unavailable",
			findErr:  unavailableRepoError{},
			subtotal: 2000,
			want:     ErrPromotionUnavailable,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubPromoRepository{}
			repo.findFn = func(context.Context, string) (domain.PromoCode, error) {
				if tc.findErr != nil {
					return domain.PromoCode{}, tc.findErr
				}
				return tc.promo, nil
			}
			svc := newTestPromotionService(t, repo)

			_, err := svc.Validate(context.Background(), "SAVE10", tc.subtotal)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestPromotionRecordRedemptionMapsConflicts(t *testing.T) {
	repo := &stubPromoRepository{}
	repo.redeemFn = func(context.Context, string) error {
		return repositories.NewRedemptionError(repositories.RedemptionErrorExhausted, "no slots left", nil)
	}
	svc := newTestPromotionService(t, repo)

	err := svc.RecordRedemption(context.Background(), "save10")
	if !errors.Is(err, ErrPromotionRedemptionConflict) {
		t.Fatalf("expected redemption conflict, got %v", err)
	}
	if len(repo.redeemCalls) != 1 || repo.redeemCalls[0] != "SAVE10" {
		t.Fatalf("expected normalised redeem call, got %v", repo.redeemCalls)
	}
}

func TestPromotionRecordRedemptionMapsUnavailable(t *testing.T) {
	repo := &stubPromoRepository{}
	repo.redeemFn = func(context.Context, string) error {
		return unavailableRepoError{}
	}
	svc := newTestPromotionService(t, repo)

	err := svc.RecordRedemption(context.Background(), "SAVE10")
	if !errors.Is(err, ErrPromotionUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestPromotionCreateRejectsDuplicateCode(t *testing.T) {
	repo := &stubPromoRepository{}
	repo.findFn = func(context.Context, string) (domain.PromoCode, error) {
		return activePromo(), nil
	}
	svc := newTestPromotionService(t, repo)

	_, err := svc.Create(context.Background(), CreatePromoCommand{
		Code:  "SAVE10",
		Type:  domain.DiscountPercentage,
		Value: 10,
	})
	if !errors.Is(err, ErrPromotionConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestPromotionCreateValidatesInput(t *testing.T) {
	repo := &stubPromoRepository{}
	svc := newTestPromotionService(t, repo)

	cases := []CreatePromoCommand{
		{Code: "", Type: domain.DiscountPercentage, Value: 10},
		{Code: "X", Type: domain.DiscountPercentage, Value: 0},
		{Code: "X", Type: domain.DiscountPercentage, Value: 101},
		{Code: "X", Type: domain.DiscountFixed, Value: -5},
		{Code: "X", Type: "unknown", Value: 10},
		{Code: "X", Type: domain.DiscountFixed, Value: 100, Usage: domain.UsageMulti, MaxUses: 0},
		{Code: "X", Type: domain.DiscountFixed, Value: 100, Scope: "Teens"},
		{Code: "X", Type: domain.DiscountFixed, Value: 100, Scope: domain.ScopeCategory},
		{Code: "X", Type: domain.DiscountFixed, Value: 100, Scope: domain.ScopeProduct, ScopeTarget: "  "},
	}
	for i, cmd := range cases {
		if _, err := svc.Create(context.Background(), cmd); !errors.Is(err, ErrPromotionInvalidInput) {
			t.Fatalf("case %d: expected invalid input, got %v", i, err)
		}
	}
}

func TestPromotionCreateDefaultsSingleUse(t *testing.T) {
	repo := &stubPromoRepository{}
	svc := newTestPromotionService(t, repo)

	promo, err := svc.Create(context.Background(), CreatePromoCommand{
		Code:   "welcome15",
		Type:   domain.DiscountPercentage,
		Value:  15,
		Active: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if promo.Code != "WELCOME15" {
		t.Fatalf("expected uppercase code, got %s", promo.Code)
	}
	if promo.Usage != domain.UsageSingle || promo.MaxUses != 1 {
		t.Fatalf("expected single use with maxUses 1, got %s/%d", promo.Usage, promo.MaxUses)
	}
	if promo.Scope != domain.ScopeAll {
		t.Fatalf("expected default scope all, got %s", promo.Scope)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected one insert, got %d", len(repo.inserted))
	}
}

func TestPromotionCreateProductScopedCode(t *testing.T) {
	repo := &stubPromoRepository{}
	svc := newTestPromotionService(t, repo)

	promo, err := svc.Create(context.Background(), CreatePromoCommand{
		Code:        "NOIR2000",
		Type:        domain.DiscountFixed,
		Value:       2000,
		Scope:       domain.ScopeProduct,
		ScopeTarget: " prd_noir ",
		Active:      true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if promo.Scope != domain.ScopeProduct {
		t.Fatalf("expected product scope, got %s", promo.Scope)
	}
	if promo.ScopeTarget != "prd_noir" {
		t.Fatalf("expected trimmed target prd_noir, got %q", promo.ScopeTarget)
	}
	if len(repo.inserted) != 1 || repo.inserted[0].ScopeTarget != "prd_noir" {
		t.Fatalf("expected persisted scope target, got %+v", repo.inserted)
	}
}

func TestPromotionCreateBatchMintsSingleUseCodes(t *testing.T) {
	repo := &stubPromoRepository{}
	counter := 0
	svc, err := NewPromotionService(PromotionServiceDeps{
		Promotions: repo,
		RandomCode: func(n int) string {
			counter++
			return strings.Repeat(string(rune('A'+counter-1)), n)
		},
	})
	if err != nil {
		t.Fatalf("new promotion service: %v", err)
	}

	promos, err := svc.CreateBatch(context.Background(), CreatePromoBatchCommand{
		Prefix: "vip",
		Count:  3,
		Title:  "VIP launch",
		Type:   domain.DiscountPercentage,
		Value:  20,
	})
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	if len(promos) != 3 {
		t.Fatalf("expected 3 codes, got %d", len(promos))
	}
	for _, promo := range promos {
		if !strings.HasPrefix(promo.Code, "VIP") {
			t.Fatalf("expected VIP prefix, got %s", promo.Code)
		}
		if len(promo.Code) != len("VIP")+promoBatchCodeLength {
			t.Fatalf("unexpected code length: %s", promo.Code)
		}
		if promo.Usage != domain.UsageSingle || promo.MaxUses != 1 || !promo.Active {
			t.Fatalf("expected active single-use code, got %+v", promo)
		}
		if promo.Title != "VIP launch" {
			t.Fatalf("expected shared title, got %s", promo.Title)
		}
	}
	if len(repo.batches) != 1 {
		t.Fatalf("expected one batch insert, got %d", len(repo.batches))
	}
}

func TestPromotionCreateBatchRetriesDuplicateRandomCodes(t *testing.T) {
	repo := &stubPromoRepository{}
	sequence := []string{"AAAA", "AAAA", "BBBB"}
	idx := 0
	svc, err := NewPromotionService(PromotionServiceDeps{
		Promotions: repo,
		RandomCode: func(int) string {
			code := sequence[idx%len(sequence)]
			idx++
			return code
		},
	})
	if err != nil {
		t.Fatalf("new promotion service: %v", err)
	}

	promos, err := svc.CreateBatch(context.Background(), CreatePromoBatchCommand{
		Prefix: "GIFT",
		Count:  2,
		Type:   domain.DiscountFixed,
		Value:  250,
	})
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	if promos[0].Code == promos[1].Code {
		t.Fatalf("expected distinct codes, got %s twice", promos[0].Code)
	}
}

func TestPromotionDeleteMapsNotFound(t *testing.T) {
	repo := &stubPromoRepository{}
	repo.deleteFn = func(context.Context, string) error {
		return notFoundRepoError{}
	}
	svc := newTestPromotionService(t, repo)

	if err := svc.Delete(context.Background(), "promo_missing"); !errors.Is(err, ErrPromotionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
