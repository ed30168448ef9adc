package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/nomenklatur/openmusic/internal/cache"
	"gorm.io/gorm"
)

type sequenceIDProvider struct {
	next int
}

func (p *sequenceIDProvider) NewID() (string, error) {
	p.next++
	return fmt.Sprintf("%08d", p.next), nil
}

type fakeCacheEntry struct {
	value string
	ttl   time.Duration
}

// fakeCache records TTLs so tests can assert the configured expiry, and
// can be switched into a failure mode to exercise the fallback path.
type fakeCache struct {
	mu          sync.Mutex
	entries     map[string]fakeCacheEntry
	unavailable bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]fakeCacheEntry)}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unavailable {
		return "", fmt.Errorf("cache unavailable")
	}
	entry, ok := f.entries[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return entry.value, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unavailable {
		return fmt.Errorf("cache unavailable")
	}
	f.entries[key] = fakeCacheEntry{value: value, ttl: ttl}
	return nil
}

func (f *fakeCache) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unavailable {
		return fmt.Errorf("cache unavailable")
	}
	delete(f.entries, key)
	return nil
}

func (f *fakeCache) entry(key string) (fakeCacheEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[key]
	return entry, ok
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *fakeCache) {
	t.Helper()
	databasePath := filepath.Join(t.TempDir(), "catalog.db")
	db, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Album{}, &Song{}, &AlbumLike{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	likesCache := newFakeCache()
	service, err := NewService(ServiceConfig{
		Database:   db,
		Cache:      likesCache,
		IDProvider: &sequenceIDProvider{},
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return service, db, likesCache
}

func mustAddAlbum(t *testing.T, service *Service, name string, year int) string {
	t.Helper()
	albumID, err := service.AddAlbum(context.Background(), AlbumPayload{Name: name, Year: year})
	if err != nil {
		t.Fatalf("failed to add album: %v", err)
	}
	return albumID
}
