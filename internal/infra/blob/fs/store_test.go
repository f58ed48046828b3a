package fs

import (
	"context"
	"io"
	"strings"
	"testing"

	"carecore/internal/blob/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestPutGetHeadDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	key := "media/residents/r1/photo.jpg"

	info, err := store.Put(ctx, key, strings.NewReader("image-bytes"), core.PutOptions{ContentType: "image/jpeg", Metadata: map[string]string{"resident": "r1"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len("image-bytes")) || info.ETag == "" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.URL != "http://local.blob/media/residents/r1/photo.jpg" {
		t.Fatalf("unexpected url: %s", info.URL)
	}

	if _, err := store.Put(ctx, key, strings.NewReader("dup"), core.PutOptions{}); err == nil {
		t.Fatal("expected duplicate put to fail")
	}

	got, rc, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "image-bytes" {
		t.Fatalf("unexpected body: %s", body)
	}
	if got.ContentType != "image/jpeg" || got.Metadata["resident"] != "r1" {
		t.Fatalf("unexpected metadata: %+v", got)
	}

	head, err := store.Head(ctx, key)
	if err != nil || head.Size != info.Size {
		t.Fatalf("head: %+v err=%v", head, err)
	}

	existed, err := store.Delete(ctx, key)
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	existed, err = store.Delete(ctx, key)
	if err != nil || existed {
		t.Fatalf("second delete should be a no-op: existed=%v err=%v", existed, err)
	}
}

func TestListByPrefix(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, key := range []string{"media/residents/r1/a.pdf", "media/residents/r1/b.pdf", "media/residents/r2/c.pdf"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "media/residents/r1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "media/residents/r1/a.pdf" {
		t.Fatalf("unexpected list: %+v", infos)
	}
}

func TestSanitizeKeyRejectsTraversal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, key := range []string{"", "../escape", "/abs/path", "a/../../b"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err == nil {
			t.Fatalf("expected rejection of key %q", key)
		}
	}
}

func TestPresignURLOnlyGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	u, err := store.PresignURL(ctx, "some/key", core.SignedURLOptions{})
	if err != nil || u == "" {
		t.Fatalf("presign get: %s err=%v", u, err)
	}
	if _, err := store.PresignURL(ctx, "some/key", core.SignedURLOptions{Method: "PUT"}); err != core.ErrUnsupported {
		t.Fatalf("expected unsupported for PUT, got %v", err)
	}
}
