//go:build integration

package firestore_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	pconfig "github.com/ayvora/api/internal/platform/config"
	pfirestore "github.com/ayvora/api/internal/platform/firestore"
)

const emulatorImage = "gcr.io/google.com/cloudsdktool/cloud-sdk:emulators"

type perfumeDoc struct {
	Name  string `firestore:"name"`
	Stock int    `firestore:"stock"`
}

func TestProviderAndRepositoryIntegration(t *testing.T) {
	endpoint := startEmulator(t)

	provider := pfirestore.NewProvider(pconfig.FirestoreConfig{
		ProjectID:    "test-project",
		EmulatorHost: endpoint,
	})
	t.Cleanup(func() {
		_ = provider.Close(context.Background())
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	client, err := provider.Client(ctx)
	if err != nil {
		t.Fatalf("Client: %v", err)
	}
	if client == nil {
		t.Fatal("provider returned nil client")
	}

	repo := pfirestore.NewBaseRepository[perfumeDoc](provider, "perfumes")

	if _, err := repo.Set(ctx, "noir-1", perfumeDoc{Name: "Noir", Stock: 1}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	doc, err := repo.Get(ctx, "noir-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.ID != "noir-1" {
		t.Fatalf("id = %s, want noir-1", doc.ID)
	}
	if doc.Data.Name != "Noir" || doc.Data.Stock != 1 {
		t.Fatalf("unexpected data: %#v", doc.Data)
	}
	if doc.UpdateTime.IsZero() {
		t.Fatal("update time not set")
	}

	if _, err := repo.Update(ctx, "noir-1", []firestore.Update{{Path: "stock", Value: 2}}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	doc, err = repo.Get(ctx, "noir-1")
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if doc.Data.Stock != 2 {
		t.Fatalf("stock = %d, want 2", doc.Data.Stock)
	}

	docs, err := repo.Query(ctx, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("len(docs) = %d, want 1", len(docs))
	}

	_, err = repo.Get(ctx, "missing")
	if err == nil {
		t.Fatal("expected not found error")
	}
	var repoErr *pfirestore.Error
	if !errors.As(err, &repoErr) {
		t.Fatalf("expected repository error, got %v", err)
	}
	if !repoErr.IsNotFound() {
		t.Fatalf("expected not found classification, got %v", repoErr)
	}

	if err := provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := repo.DocumentRef(ctx, "noir-1")
		if err != nil {
			return err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var entity perfumeDoc
		if err := snap.DataTo(&entity); err != nil {
			return err
		}
		entity.Stock++
		return tx.Set(ref, entity)
	}); err != nil {
		t.Fatalf("RunTransaction: %v", err)
	}

	doc, err = repo.Get(ctx, "noir-1")
	if err != nil {
		t.Fatalf("Get after transaction: %v", err)
	}
	if doc.Data.Stock != 3 {
		t.Fatalf("stock = %d after txn, want 3", doc.Data.Stock)
	}

	cancelledCtx, cancelTxn := context.WithCancel(context.Background())
	cancelTxn()
	err = provider.RunTransaction(cancelledCtx, func(context.Context, *firestore.Transaction) error {
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RunTransaction on cancelled ctx = %v, want context.Canceled", err)
	}
}

// startEmulator launches the Firestore emulator in docker and returns its
// endpoint. Skips the test when docker is not usable.
func startEmulator(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not available: " + err.Error())
	}
	infoCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := exec.CommandContext(infoCtx, "docker", "info").Run(); err != nil {
		t.Skip("docker daemon unavailable: " + err.Error())
	}

	port := freePort(t)
	endpoint := fmt.Sprintf("127.0.0.1:%d", port)

	out, err := exec.Command("docker",
		"run", "-d", "--rm",
		"-p", fmt.Sprintf("%d:8080", port),
		emulatorImage,
		"gcloud", "beta", "emulators", "firestore", "start",
		"--host-port=0.0.0.0:8080",
		"--quiet",
	).CombinedOutput()
	if err != nil {
		t.Fatalf("start firestore emulator: %v - %s", err, string(out))
	}
	id := strings.TrimSpace(string(out))
	if id == "" {
		t.Fatal("docker returned empty container id")
	}
	if len(id) > 12 {
		id = id[:12]
	}
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = exec.CommandContext(stopCtx, "docker", "stop", id).Run()
	})

	waitForEndpoint(t, endpoint, 30*time.Second)
	return endpoint
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("allocate port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func waitForEndpoint(t *testing.T, endpoint string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", endpoint, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		lastErr = err
		time.Sleep(250 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = errors.New("timeout waiting for endpoint")
	}
	t.Fatalf("emulator did not become ready: %v", lastErr)
}
