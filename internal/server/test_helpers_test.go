package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/nomenklatur/openmusic/internal/auth"
	"github.com/nomenklatur/openmusic/internal/cache"
	"github.com/nomenklatur/openmusic/internal/catalog"
	"github.com/nomenklatur/openmusic/internal/exports"
	"github.com/nomenklatur/openmusic/internal/identifier"
	"github.com/nomenklatur/openmusic/internal/playlists"
	"github.com/nomenklatur/openmusic/internal/storage"
	"github.com/nomenklatur/openmusic/internal/users"
	"gorm.io/gorm"
)

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.entries[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return value, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = value
	return nil
}

func (f *fakeCache) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
	return nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []publishedMessage
}

type publishedMessage struct {
	queueName string
	body      []byte
}

func (p *recordingPublisher) Publish(_ context.Context, queueName string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, publishedMessage{queueName: queueName, body: body})
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

type testEnv struct {
	handler   http.Handler
	cache     *fakeCache
	publisher *recordingPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	databasePath := filepath.Join(t.TempDir(), "api.db")
	db, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&catalog.Album{}, &catalog.Song{}, &catalog.AlbumLike{},
		&playlists.Playlist{}, &playlists.PlaylistSong{},
		&users.User{}, &auth.RefreshToken{},
	); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	likesCache := newFakeCache()
	publisher := &recordingPublisher{}
	idProvider := identifier.NewUUIDProvider()

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Database: db, Cache: likesCache, IDProvider: idProvider,
	})
	if err != nil {
		t.Fatalf("failed to create catalog service: %v", err)
	}
	playlistsService, err := playlists.NewService(playlists.ServiceConfig{
		Database: db, IDProvider: idProvider,
	})
	if err != nil {
		t.Fatalf("failed to create playlists service: %v", err)
	}
	usersService, err := users.NewService(users.ServiceConfig{
		Database: db, IDProvider: idProvider,
	})
	if err != nil {
		t.Fatalf("failed to create users service: %v", err)
	}
	exportsService, err := exports.NewService(exports.ServiceConfig{
		Playlists: playlistsService, Publisher: publisher,
	})
	if err != nil {
		t.Fatalf("failed to create exports service: %v", err)
	}
	sessionStore, err := auth.NewSessionStore(db)
	if err != nil {
		t.Fatalf("failed to create session store: %v", err)
	}
	fileStorage, err := storage.NewFileStorage(filepath.Join(t.TempDir(), "covers"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	tokenIssuer := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	})

	handler, err := NewHTTPHandler(Dependencies{
		Catalog:       catalogService,
		Playlists:     playlistsService,
		Users:         usersService,
		Exports:       exportsService,
		Sessions:      sessionStore,
		Tokens:        tokenIssuer,
		Storage:       fileStorage,
		UploadBaseURL: "http://localhost:5000",
	})
	if err != nil {
		t.Fatalf("failed to create handler: %v", err)
	}

	return &testEnv{handler: handler, cache: likesCache, publisher: publisher}
}

func (env *testEnv) do(t *testing.T, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to encode payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}

	request := httptest.NewRequest(method, path, body)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	env.handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var decoded map[string]interface{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
	return decoded
}

func dataField(t *testing.T, recorder *httptest.ResponseRecorder, field string) string {
	t.Helper()
	decoded := decodeBody(t, recorder)
	data, ok := decoded["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected data object in response %q", recorder.Body.String())
	}
	value, ok := data[field].(string)
	if !ok {
		t.Fatalf("expected string field %q in response %q", field, recorder.Body.String())
	}
	return value
}

// registerAndLogin provisions an account and returns its id and access token.
func (env *testEnv) registerAndLogin(t *testing.T, username string) (string, string) {
	t.Helper()
	recorder := env.do(t, http.MethodPost, "/users", "", gin.H{
		"username": username,
		"password": "secret-" + username,
		"fullname": fmt.Sprintf("User %s", username),
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("register failed with status %d: %s", recorder.Code, recorder.Body.String())
	}
	userID := dataField(t, recorder, "userId")

	recorder = env.do(t, http.MethodPost, "/authentications", "", gin.H{
		"username": username,
		"password": "secret-" + username,
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("login failed with status %d: %s", recorder.Code, recorder.Body.String())
	}
	return userID, dataField(t, recorder, "accessToken")
}

func (env *testEnv) createAlbum(t *testing.T, name string, year int) string {
	t.Helper()
	recorder := env.do(t, http.MethodPost, "/albums", "", gin.H{"name": name, "year": year})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create album failed with status %d: %s", recorder.Code, recorder.Body.String())
	}
	return dataField(t, recorder, "albumId")
}
