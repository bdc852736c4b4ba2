package storage

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"
)

type fakeSigner struct {
	email    string
	payloads [][]byte
	err      error
}

func (f *fakeSigner) Email() string {
	return f.email
}

func (f *fakeSigner) SignBytes(_ context.Context, payload []byte) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.payloads = append(f.payloads, append([]byte(nil), payload...))
	return []byte("signed"), nil
}

func newTestClient(t *testing.T, opts ...ClientOption) (*Client, *fakeSigner) {
	t.Helper()
	signer := &fakeSigner{email: "test@example.iam.gserviceaccount.com"}
	client, err := NewClient(signer, opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, signer
}

func TestSignedURLUploadSuccess(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	client, signer := newTestClient(t, WithClock(func() time.Time { return now }))

	opts := SignedURLOptions{
		Upload: &UploadOptions{
			Method:              "PUT",
			ContentType:         "image/png",
			ContentMD5:          "xN0dYbCPv0CM0k9d1u8G7g==",
			RequireMD5:          true,
			AllowedContentTypes: []string{"image/png"},
			MaxSize:             1 << 20,
			ExpiresIn:           10 * time.Minute,
		},
	}

	res, err := client.SignedURL(context.Background(), "bucket", "images/products/prd_123/bottle.png", opts)
	if err != nil {
		t.Fatalf("SignedURL returned error: %v", err)
	}

	if res.Method != http.MethodPut {
		t.Fatalf("expected method PUT, got %s", res.Method)
	}
	if !res.ExpiresAt.Equal(now.Add(10 * time.Minute)) {
		t.Fatalf("unexpected expiry %v", res.ExpiresAt)
	}
	if res.Headers["Content-Type"] != "image/png" {
		t.Fatalf("expected Content-Type header, got %v", res.Headers)
	}
	if res.Headers["Content-MD5"] != "xN0dYbCPv0CM0k9d1u8G7g==" {
		t.Fatalf("expected Content-MD5 header, got %v", res.Headers)
	}
	if res.Headers["x-goog-content-length-range"] != "0,1048576" {
		t.Fatalf("expected content length header, got %v", res.Headers)
	}

	parsed, err := url.Parse(res.URL)
	if err != nil {
		t.Fatalf("parse signed URL: %v", err)
	}
	if !strings.Contains(parsed.RawQuery, "X-Goog-Signature=") {
		t.Fatalf("expected signature in query: %s", parsed.RawQuery)
	}
	if len(signer.payloads) == 0 {
		t.Fatal("expected signer to be invoked")
	}
}

func TestSignedURLUploadDefaultsToPut(t *testing.T) {
	client, _ := newTestClient(t)

	res, err := client.SignedURL(context.Background(), "bucket", "object", SignedURLOptions{
		Upload: &UploadOptions{ContentType: "image/webp"},
	})
	if err != nil {
		t.Fatalf("SignedURL returned error: %v", err)
	}
	if res.Method != http.MethodPut {
		t.Fatalf("expected PUT default, got %s", res.Method)
	}
}

func TestSignedURLUploadRejectsInvalidContentType(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.SignedURL(context.Background(), "bucket", "object", SignedURLOptions{
		Upload: &UploadOptions{
			Method:              "PUT",
			ContentType:         "application/pdf",
			AllowedContentTypes: []string{"image/png"},
		},
	})
	if !errors.Is(err, errContentTypeDenied) {
		t.Fatalf("expected errContentTypeDenied, got %v", err)
	}
}

func TestSignedURLUploadAllowsWildcardContentType(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.SignedURL(context.Background(), "bucket", "object", SignedURLOptions{
		Upload: &UploadOptions{
			ContentType:         "image/avif",
			AllowedContentTypes: []string{"image/*"},
		},
	})
	if err != nil {
		t.Fatalf("expected wildcard match, got %v", err)
	}
}

func TestSignedURLUploadRequiresMD5(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.SignedURL(context.Background(), "bucket", "object", SignedURLOptions{
		Upload: &UploadOptions{
			Method:      "PUT",
			ContentType: "image/png",
			RequireMD5:  true,
		},
	})
	if !errors.Is(err, errMD5Required) {
		t.Fatalf("expected errMD5Required, got %v", err)
	}
}

func TestSignedURLUploadRejectsReadMethods(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.SignedURL(context.Background(), "bucket", "object", SignedURLOptions{
		Upload: &UploadOptions{Method: "GET", ContentType: "image/png"},
	})
	if !errors.Is(err, errMethodNotAllowed) {
		t.Fatalf("expected errMethodNotAllowed, got %v", err)
	}
}

func TestSignedURLRequiresUploadOptions(t *testing.T) {
	client, _ := newTestClient(t)

	if _, err := client.SignedURL(context.Background(), "bucket", "object", SignedURLOptions{}); err == nil {
		t.Fatal("expected error without upload options")
	}
	if _, err := client.SignedURL(context.Background(), "", "object", SignedURLOptions{Upload: &UploadOptions{ContentType: "image/png"}}); !errors.Is(err, errInvalidBucket) {
		t.Fatalf("expected errInvalidBucket, got %v", err)
	}
}
