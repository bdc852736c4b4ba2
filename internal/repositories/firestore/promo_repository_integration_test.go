//go:build integration

package firestore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ayvora/api/internal/domain"
	pconfig "github.com/ayvora/api/internal/platform/config"
	pfirestore "github.com/ayvora/api/internal/platform/firestore"
	"github.com/ayvora/api/internal/repositories"
)

func TestPromoRepositoryRedeemIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}

	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not available: " + err.Error())
	}

	ensureDockerDaemon(t)

	port := freePort(t)
	endpoint := fmt.Sprintf("127.0.0.1:%d", port)
	containerID := startFirestoreEmulator(t, port)
	t.Cleanup(func() { stopContainer(containerID) })

	waitForEndpoint(t, endpoint, 30*time.Second)

	cfg := pconfig.FirestoreConfig{
		ProjectID:    "promo-test",
		EmulatorHost: endpoint,
	}

	provider := pfirestore.NewProvider(cfg)
	t.Cleanup(func() {
		_ = provider.Close(context.Background())
	})

	repo, err := NewPromoCodeRepository(provider)
	if err != nil {
		t.Fatalf("new promo repository: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	now := time.Now().UTC()
	if err := repo.Insert(ctx, domain.PromoCode{
		ID:        "promo-capped",
		Code:      "LAUNCH10",
		Title:     "Launch discount",
		Type:      domain.DiscountPercentage,
		Value:     10,
		Scope:     domain.ScopeAll,
		Usage:     domain.UsageMulti,
		MaxUses:   3,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("insert promo: %v", err)
	}

	// More workers than redemption slots; exactly MaxUses must win.
	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(idx int) {
			defer wg.Done()
			errs[idx] = repo.Redeem(ctx, "LAUNCH10")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for idx, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var redemptionErr *repositories.RedemptionError
		if !errors.As(err, &redemptionErr) {
			t.Fatalf("redeem(%d): unexpected error %T %v", idx, err, err)
		}
		if redemptionErr.Code != repositories.RedemptionErrorExhausted {
			t.Fatalf("redeem(%d): expected exhausted code, got %s", idx, redemptionErr.Code)
		}
	}
	if succeeded != 3 {
		t.Fatalf("expected exactly 3 successful redemptions, got %d", succeeded)
	}

	promo, err := repo.FindByCode(ctx, "LAUNCH10")
	if err != nil {
		t.Fatalf("find promo: %v", err)
	}
	if promo.UsedCount != 3 {
		t.Fatalf("expected usedCount 3, got %d", promo.UsedCount)
	}

	// A single-use code rejects the second redemption.
	if err := repo.Insert(ctx, domain.PromoCode{
		ID:        "promo-single",
		Code:      "WELCOME5",
		Type:      domain.DiscountFixed,
		Value:     5,
		Scope:     domain.ScopeAll,
		Usage:     domain.UsageSingle,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("insert single-use promo: %v", err)
	}
	if err := repo.Redeem(ctx, "WELCOME5"); err != nil {
		t.Fatalf("first redemption: %v", err)
	}
	err = repo.Redeem(ctx, "WELCOME5")
	var redemptionErr *repositories.RedemptionError
	if !errors.As(err, &redemptionErr) || redemptionErr.Code != repositories.RedemptionErrorExhausted {
		t.Fatalf("expected exhausted error on second redemption, got %v", err)
	}

	// Unknown codes surface a not found error.
	err = repo.Redeem(ctx, "MISSING")
	if !errors.As(err, &redemptionErr) || redemptionErr.Code != repositories.RedemptionErrorNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	addr, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("unable to allocate port: %v", err)
	}
	defer addr.Close()
	return addr.Addr().(*net.TCPAddr).Port
}

func startFirestoreEmulator(t *testing.T, port int) string {
	t.Helper()
	args := []string{
		"run", "-d", "--rm",
		"-p", fmt.Sprintf("%d:8080", port),
		firestoreEmulatorImage,
		"gcloud", "beta", "emulators", "firestore", "start",
		"--host-port=0.0.0.0:8080",
		"--quiet",
	}

	cmd := exec.Command("docker", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to start firestore emulator: %v - %s", err, string(out))
	}
	id := strings.TrimSpace(string(out))
	if id == "" {
		t.Fatalf("docker returned empty container id")
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}

func ensureDockerDaemon(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, "docker", "info")
	if err := cmd.Run(); err != nil {
		t.Fatalf("docker daemon not available: %v", err)
	}
}

func stopContainer(id string) {
	if id == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, "docker", "stop", id)
	_ = cmd.Run()
}

func waitForEndpoint(t *testing.T, endpoint string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", endpoint, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	t.Fatalf("firestore emulator at %s did not become ready within %s", endpoint, timeout)
}

const firestoreEmulatorImage = "gcr.io/google.com/cloudsdktool/cloud-sdk:emulators"
