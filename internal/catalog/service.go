package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nomenklatur/openmusic/internal/cache"
	"github.com/nomenklatur/openmusic/internal/fault"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	likesCacheTTL       = 30 * time.Second
	likesCacheKeyPrefix = "likes:"
)

var (
	errMissingDatabase   = errors.New("catalog: database handle is required")
	errMissingCache      = errors.New("catalog: cache is required")
	errMissingIDProvider = errors.New("catalog: id provider is required")
)

// IDProvider issues unique identifier suffixes for new rows.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies of the catalog service.
type ServiceConfig struct {
	Database   *gorm.DB
	Cache      cache.Cache
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service owns albums, songs, and the album-likes engine.
type Service struct {
	db         *gorm.DB
	cache      cache.Cache
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService validates dependencies and constructs the catalog service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	if cfg.Cache == nil {
		return nil, errMissingCache
	}
	if cfg.IDProvider == nil {
		return nil, errMissingIDProvider
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:         cfg.Database,
		cache:      cfg.Cache,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// AddAlbum persists a new album and returns its generated identifier.
func (s *Service) AddAlbum(ctx context.Context, payload AlbumPayload) (string, error) {
	suffix, err := s.idProvider.NewID()
	if err != nil {
		return "", fmt.Errorf("add album: %w", err)
	}
	album := Album{
		ID:   "album-" + suffix,
		Name: payload.Name,
		Year: payload.Year,
	}
	if err := s.db.WithContext(ctx).Create(&album).Error; err != nil {
		s.logger.Error("album insert failed", zap.Error(err))
		return "", fault.Invariant("album was not added")
	}
	return album.ID, nil
}

// GetAlbum returns the album with the given identifier.
func (s *Service) GetAlbum(ctx context.Context, albumID string) (Album, error) {
	var album Album
	err := s.db.WithContext(ctx).Take(&album, "id = ?", albumID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Album{}, fault.NotFound("album not found")
	}
	if err != nil {
		return Album{}, fmt.Errorf("get album: %w", err)
	}
	return album, nil
}

// UpdateAlbum overwrites the album's name and year.
func (s *Service) UpdateAlbum(ctx context.Context, albumID string, payload AlbumPayload) error {
	result := s.db.WithContext(ctx).Model(&Album{}).
		Where("id = ?", albumID).
		Updates(map[string]interface{}{"name": payload.Name, "year": payload.Year})
	if result.Error != nil {
		return fmt.Errorf("update album: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fault.NotFound("album not found")
	}
	return nil
}

// DeleteAlbum removes the album along with its songs and likes in a single
// transaction, mirroring the store-level cascade.
func (s *Service) DeleteAlbum(ctx context.Context, albumID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("album_id = ?", albumID).Delete(&AlbumLike{}).Error; err != nil {
			return fmt.Errorf("delete album likes: %w", err)
		}
		if err := tx.Where("album_id = ?", albumID).Delete(&Song{}).Error; err != nil {
			return fmt.Errorf("delete album songs: %w", err)
		}
		result := tx.Where("id = ?", albumID).Delete(&Album{})
		if result.Error != nil {
			return fmt.Errorf("delete album: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fault.NotFound("album not found")
		}
		return nil
	})
}

// SetCoverURL records the public location of an uploaded album cover.
func (s *Service) SetCoverURL(ctx context.Context, albumID, coverURL string) error {
	result := s.db.WithContext(ctx).Model(&Album{}).
		Where("id = ?", albumID).
		Update("cover_url", coverURL)
	if result.Error != nil {
		return fmt.Errorf("set cover url: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fault.NotFound("album not found")
	}
	return nil
}

// AddSong persists a new song and returns its generated identifier.
func (s *Service) AddSong(ctx context.Context, payload SongPayload) (string, error) {
	if payload.AlbumID != nil {
		if err := s.EnsureAlbumExists(ctx, *payload.AlbumID); err != nil {
			return "", err
		}
	}
	suffix, err := s.idProvider.NewID()
	if err != nil {
		return "", fmt.Errorf("add song: %w", err)
	}
	song := Song{
		ID:        "song-" + suffix,
		Title:     payload.Title,
		Year:      payload.Year,
		Performer: payload.Performer,
		Genre:     payload.Genre,
		Duration:  payload.Duration,
		AlbumID:   payload.AlbumID,
	}
	if err := s.db.WithContext(ctx).Create(&song).Error; err != nil {
		s.logger.Error("song insert failed", zap.Error(err))
		return "", fault.Invariant("song was not added")
	}
	return song.ID, nil
}

// ListSongs returns the reduced projection of every song.
func (s *Service) ListSongs(ctx context.Context) ([]SongSummary, error) {
	var songs []SongSummary
	err := s.db.WithContext(ctx).Model(&Song{}).
		Select("id", "title", "performer").
		Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	return songs, nil
}

// GetSong returns the song with the given identifier.
func (s *Service) GetSong(ctx context.Context, songID string) (Song, error) {
	var song Song
	err := s.db.WithContext(ctx).Take(&song, "id = ?", songID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Song{}, fault.NotFound("song not found")
	}
	if err != nil {
		return Song{}, fmt.Errorf("get song: %w", err)
	}
	return song, nil
}

// UpdateSong overwrites all mutable song fields.
func (s *Service) UpdateSong(ctx context.Context, songID string, payload SongPayload) error {
	result := s.db.WithContext(ctx).Model(&Song{}).
		Where("id = ?", songID).
		Updates(map[string]interface{}{
			"title":     payload.Title,
			"year":      payload.Year,
			"performer": payload.Performer,
			"genre":     payload.Genre,
			"duration":  payload.Duration,
			"album_id":  payload.AlbumID,
		})
	if result.Error != nil {
		return fmt.Errorf("update song: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fault.NotFound("song not found")
	}
	return nil
}

// DeleteSong removes the song with the given identifier.
func (s *Service) DeleteSong(ctx context.Context, songID string) error {
	result := s.db.WithContext(ctx).Where("id = ?", songID).Delete(&Song{})
	if result.Error != nil {
		return fmt.Errorf("delete song: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fault.NotFound("song not found")
	}
	return nil
}

// EnsureAlbumExists fails with a not-found fault when no album row matches.
// Operations referencing an album by identifier call this before dependent
// writes.
func (s *Service) EnsureAlbumExists(ctx context.Context, albumID string) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&Album{}).
		Where("id = ?", albumID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("ensure album exists: %w", err)
	}
	if count == 0 {
		return fault.NotFound("album not found")
	}
	return nil
}

// ToggleLike flips the user's like on an album: inserts the like when
// absent, deletes it when present, and unconditionally invalidates the
// cached count. The check-then-act sequence is not transactional; two
// concurrent toggles for the same pair can race.
func (s *Service) ToggleLike(ctx context.Context, albumID, userID string) error {
	var existing AlbumLike
	err := s.db.WithContext(ctx).
		Where("album_id = ? AND user_id = ?", albumID, userID).
		Take(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.addLike(ctx, albumID, userID); err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("toggle like: %w", err)
	default:
		if err := s.removeLike(ctx, albumID, userID); err != nil {
			return err
		}
	}

	if err := s.cache.Delete(ctx, likesCacheKey(albumID)); err != nil {
		s.logger.Error("like count invalidation failed",
			zap.String("album_id", albumID), zap.Error(err))
		return fmt.Errorf("invalidate like count: %w", err)
	}
	return nil
}

// LikeCount serves the album's like total cache-aside: any cache lookup
// failure, a genuine miss included, falls back to the store and repopulates
// the cache with a fresh 30-second entry.
func (s *Service) LikeCount(ctx context.Context, albumID string) (LikeCount, error) {
	key := likesCacheKey(albumID)
	if raw, err := s.cache.Get(ctx, key); err == nil {
		if count, parseErr := strconv.Atoi(raw); parseErr == nil {
			return LikeCount{Count: count, FromCache: true}, nil
		}
		s.logger.Warn("cached like count unparseable",
			zap.String("album_id", albumID), zap.String("value", raw))
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&AlbumLike{}).
		Where("album_id = ?", albumID).
		Count(&count).Error
	if err != nil {
		return LikeCount{}, fmt.Errorf("count likes: %w", err)
	}

	if err := s.cache.Set(ctx, key, strconv.FormatInt(count, 10), likesCacheTTL); err != nil {
		// The count is already correct from the store; a failed cache
		// write only costs the next reader a fallback.
		s.logger.Warn("like count cache write failed",
			zap.String("album_id", albumID), zap.Error(err))
	}
	return LikeCount{Count: int(count)}, nil
}

func (s *Service) addLike(ctx context.Context, albumID, userID string) error {
	suffix, err := s.idProvider.NewID()
	if err != nil {
		return fmt.Errorf("add like: %w", err)
	}
	like := AlbumLike{
		ID:      "likes-" + suffix,
		UserID:  userID,
		AlbumID: albumID,
	}
	result := s.db.WithContext(ctx).Create(&like)
	if result.Error != nil {
		s.logger.Error("like insert failed",
			zap.String("album_id", albumID), zap.String("user_id", userID),
			zap.Error(result.Error))
		return fault.Invariant("album was not liked")
	}
	if result.RowsAffected == 0 {
		return fault.Invariant("album was not liked")
	}
	return nil
}

func (s *Service) removeLike(ctx context.Context, albumID, userID string) error {
	result := s.db.WithContext(ctx).
		Where("album_id = ? AND user_id = ?", albumID, userID).
		Delete(&AlbumLike{})
	if result.Error != nil {
		return fmt.Errorf("remove like: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// The row vanished between check and delete.
		return fault.Invariant("album was not disliked")
	}
	return nil
}

func likesCacheKey(albumID string) string {
	return likesCacheKeyPrefix + albumID
}
