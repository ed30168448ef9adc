package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nomenklatur/openmusic/internal/fault"
)

func TestToggleLikePairRestoresOriginalState(t *testing.T) {
	service, db, _ := newTestService(t)
	albumID := mustAddAlbum(t, service, "Renaissance", 2022)

	if err := service.ToggleLike(context.Background(), albumID, "user-1"); err != nil {
		t.Fatalf("first toggle failed: %v", err)
	}
	var count int64
	if err := db.Model(&AlbumLike{}).Where("album_id = ?", albumID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count likes: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one like row after first toggle, got %d", count)
	}

	if err := service.ToggleLike(context.Background(), albumID, "user-1"); err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if err := db.Model(&AlbumLike{}).Where("album_id = ?", albumID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count likes: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no like rows after a toggle pair, got %d", count)
	}
}

func TestToggleLikeInvalidatesCachedCount(t *testing.T) {
	service, _, likesCache := newTestService(t)
	albumID := mustAddAlbum(t, service, "Renaissance", 2022)

	if err := likesCache.Set(context.Background(), likesCacheKey(albumID), "5", likesCacheTTL); err != nil {
		t.Fatalf("failed to seed cache: %v", err)
	}

	if err := service.ToggleLike(context.Background(), albumID, "user-1"); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	if _, ok := likesCache.entry(likesCacheKey(albumID)); ok {
		t.Fatalf("expected cache entry to be removed after toggle")
	}
}

func TestLikeCountServesCacheAside(t *testing.T) {
	service, _, likesCache := newTestService(t)
	albumID := mustAddAlbum(t, service, "Renaissance", 2022)

	if err := service.ToggleLike(context.Background(), albumID, "user-1"); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	first, err := service.LikeCount(context.Background(), albumID)
	if err != nil {
		t.Fatalf("first count failed: %v", err)
	}
	if first.Count != 1 || first.FromCache {
		t.Fatalf("expected count 1 from store, got %+v", first)
	}

	entry, ok := likesCache.entry(likesCacheKey(albumID))
	if !ok {
		t.Fatalf("expected count to be written back into the cache")
	}
	if entry.ttl != 30*time.Second {
		t.Fatalf("expected a 30s expiry on the cached count, got %s", entry.ttl)
	}

	second, err := service.LikeCount(context.Background(), albumID)
	if err != nil {
		t.Fatalf("second count failed: %v", err)
	}
	if second.Count != 1 || !second.FromCache {
		t.Fatalf("expected count 1 from cache, got %+v", second)
	}
}

func TestLikeCountAfterDislikeReadsStore(t *testing.T) {
	service, _, _ := newTestService(t)
	albumID := mustAddAlbum(t, service, "Renaissance", 2022)

	if err := service.ToggleLike(context.Background(), albumID, "user-1"); err != nil {
		t.Fatalf("like failed: %v", err)
	}
	if _, err := service.LikeCount(context.Background(), albumID); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if err := service.ToggleLike(context.Background(), albumID, "user-1"); err != nil {
		t.Fatalf("dislike failed: %v", err)
	}

	result, err := service.LikeCount(context.Background(), albumID)
	if err != nil {
		t.Fatalf("count after dislike failed: %v", err)
	}
	if result.Count != 0 || result.FromCache {
		t.Fatalf("expected fresh store count of 0, got %+v", result)
	}
}

func TestLikeCountFallsBackWhenCacheUnparseable(t *testing.T) {
	service, _, likesCache := newTestService(t)
	albumID := mustAddAlbum(t, service, "Renaissance", 2022)

	if err := likesCache.Set(context.Background(), likesCacheKey(albumID), "not-a-number", likesCacheTTL); err != nil {
		t.Fatalf("failed to seed cache: %v", err)
	}

	result, err := service.LikeCount(context.Background(), albumID)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if result.Count != 0 || result.FromCache {
		t.Fatalf("expected store-served count, got %+v", result)
	}
}

func TestLikeCountSurvivesCacheOutage(t *testing.T) {
	service, _, likesCache := newTestService(t)
	albumID := mustAddAlbum(t, service, "Renaissance", 2022)
	if err := service.ToggleLike(context.Background(), albumID, "user-1"); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	likesCache.unavailable = true
	result, err := service.LikeCount(context.Background(), albumID)
	if err != nil {
		t.Fatalf("count during outage failed: %v", err)
	}
	if result.Count != 1 || result.FromCache {
		t.Fatalf("expected store fallback during cache outage, got %+v", result)
	}
}

func TestRemoveLikeWithoutRowIsInvariant(t *testing.T) {
	service, _, _ := newTestService(t)
	albumID := mustAddAlbum(t, service, "Renaissance", 2022)

	err := service.removeLike(context.Background(), albumID, "user-1")
	if !errors.Is(err, fault.ErrInvariant) {
		t.Fatalf("expected invariant fault for vanished row, got %v", err)
	}
}

func TestEnsureAlbumExists(t *testing.T) {
	service, _, _ := newTestService(t)
	albumID := mustAddAlbum(t, service, "Renaissance", 2022)

	if err := service.EnsureAlbumExists(context.Background(), albumID); err != nil {
		t.Fatalf("expected existing album to pass: %v", err)
	}
	err := service.EnsureAlbumExists(context.Background(), "album-missing")
	if !errors.Is(err, fault.ErrNotFound) {
		t.Fatalf("expected not-found fault, got %v", err)
	}
}
