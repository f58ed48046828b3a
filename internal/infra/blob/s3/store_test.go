package s3

import (
	"context"
	"io"
	"strings"
	"testing"

	"carecore/internal/blob/core"
)

func TestMockStoreLifecycle(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()

	if store.Driver() != core.DriverS3 {
		t.Fatalf("unexpected driver %s", store.Driver())
	}

	info, err := store.Put(ctx, "media/residents/r1/photo.jpg", strings.NewReader("bytes"), core.PutOptions{ContentType: "image/jpeg"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "media/residents/r1/photo.jpg" {
		t.Fatalf("unexpected key %s", info.Key)
	}

	if _, err := store.Put(ctx, "media/residents/r1/photo.jpg", strings.NewReader("dup"), core.PutOptions{}); err == nil {
		t.Fatal("expected duplicate put to fail")
	}

	got, rc, err := store.Get(ctx, "media/residents/r1/photo.jpg")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "bytes" || got.Size != 5 {
		t.Fatalf("unexpected blob: %q %+v", body, got)
	}

	infos, err := store.List(ctx, "media/residents/r1/")
	if err != nil || len(infos) != 1 {
		t.Fatalf("list: %+v err=%v", infos, err)
	}

	existed, err := store.Delete(ctx, "media/residents/r1/photo.jpg")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	if _, err := store.Head(ctx, "media/residents/r1/photo.jpg"); err == nil {
		t.Fatal("expected head miss after delete")
	}
}

func TestMockStorePresign(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()
	u, err := store.PresignURL(ctx, "some/key", core.SignedURLOptions{})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.Contains(u, "some/key") {
		t.Fatalf("expected key in url, got %s", u)
	}
	if _, err := store.PresignURL(ctx, "some/key", core.SignedURLOptions{Method: "PUT"}); err != core.ErrUnsupported {
		t.Fatalf("expected unsupported for PUT, got %v", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected bucket requirement")
	}
}

func TestOpenFromEnvRequiresBucket(t *testing.T) {
	t.Setenv("CARECORE_BLOB_S3_BUCKET", "")
	if _, err := OpenFromEnv(context.Background()); err == nil {
		t.Fatal("expected env bucket requirement")
	}
}
