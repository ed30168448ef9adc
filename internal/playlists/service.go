package playlists

import (
	"context"
	"errors"
	"fmt"

	"github.com/nomenklatur/openmusic/internal/fault"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase   = errors.New("playlists: database handle is required")
	errMissingIDProvider = errors.New("playlists: id provider is required")
)

// IDProvider issues unique identifier suffixes for new rows.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies of the playlists service.
type ServiceConfig struct {
	Database   *gorm.DB
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service owns playlists, their song associations, and the ownership guard
// that gates every mutating playlist operation.
type Service struct {
	db         *gorm.DB
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService validates dependencies and constructs the playlists service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
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
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// AddPlaylist persists a new playlist owned by ownerID and returns its
// generated identifier.
func (s *Service) AddPlaylist(ctx context.Context, name, ownerID string) (string, error) {
	suffix, err := s.idProvider.NewID()
	if err != nil {
		return "", fmt.Errorf("add playlist: %w", err)
	}
	playlist := Playlist{
		ID:      "playlist-" + suffix,
		Name:    name,
		OwnerID: ownerID,
	}
	if err := s.db.WithContext(ctx).Create(&playlist).Error; err != nil {
		s.logger.Error("playlist insert failed", zap.Error(err))
		return "", fault.Invariant("playlist was not added")
	}
	return playlist.ID, nil
}

// ListByOwner returns the owner's playlists joined with their username.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]PlaylistSummary, error) {
	var summaries []PlaylistSummary
	err := s.db.WithContext(ctx).Table("playlists").
		Select("playlists.id", "playlists.name", "users.username").
		Joins("LEFT JOIN users ON users.id = playlists.owner").
		Where("playlists.owner = ?", ownerID).
		Find(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	return summaries, nil
}

// GetPlaylist returns the playlist summary for the given identifier.
func (s *Service) GetPlaylist(ctx context.Context, playlistID string) (PlaylistSummary, error) {
	var summary PlaylistSummary
	err := s.db.WithContext(ctx).Table("playlists").
		Select("playlists.id", "playlists.name", "users.username").
		Joins("LEFT JOIN users ON users.id = playlists.owner").
		Where("playlists.id = ?", playlistID).
		Take(&summary).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PlaylistSummary{}, fault.NotFound("playlist not found")
	}
	if err != nil {
		return PlaylistSummary{}, fmt.Errorf("get playlist: %w", err)
	}
	return summary, nil
}

// DeletePlaylist removes the playlist and its song associations in a
// single transaction.
func (s *Service) DeletePlaylist(ctx context.Context, playlistID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", playlistID).Delete(&PlaylistSong{}).Error; err != nil {
			return fmt.Errorf("delete playlist songs: %w", err)
		}
		result := tx.Where("id = ?", playlistID).Delete(&Playlist{})
		if result.Error != nil {
			return fmt.Errorf("delete playlist: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fault.NotFound("playlist not found")
		}
		return nil
	})
}

// AddSong associates a song with the playlist. The song must exist; the
// playlist has already passed the ownership guard.
func (s *Service) AddSong(ctx context.Context, playlistID, songID string) error {
	if err := s.ensureSongExists(ctx, songID); err != nil {
		return err
	}
	entry := PlaylistSong{
		PlaylistID: playlistID,
		SongID:     songID,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.logger.Error("playlist song insert failed", zap.Error(err))
		return fault.Invariant("song was not added to playlist")
	}
	return nil
}

// ListSongs returns the songs associated with the playlist in insertion
// order.
func (s *Service) ListSongs(ctx context.Context, playlistID string) ([]SongEntry, error) {
	var entries []SongEntry
	err := s.db.WithContext(ctx).Table("songs").
		Select("songs.id", "songs.title", "songs.performer").
		Joins("LEFT JOIN playlist_songs ON playlist_songs.song_id = songs.id").
		Where("playlist_songs.playlist_id = ?", playlistID).
		Order("playlist_songs.id").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list playlist songs: %w", err)
	}
	return entries, nil
}

// RemoveSong deletes the association between the playlist and the song.
func (s *Service) RemoveSong(ctx context.Context, playlistID, songID string) error {
	result := s.db.WithContext(ctx).
		Where("playlist_id = ? AND song_id = ?", playlistID, songID).
		Delete(&PlaylistSong{})
	if result.Error != nil {
		return fmt.Errorf("remove playlist song: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fault.Invariant("song was not removed from playlist")
	}
	return nil
}

// VerifyOwner fails with a not-found fault when the playlist is absent and
// a forbidden fault when ownerID is not the stored owner. Existence is
// checked first so callers never learn whether someone else's playlist id
// is valid through the authorization error.
func (s *Service) VerifyOwner(ctx context.Context, playlistID, ownerID string) error {
	var playlist Playlist
	err := s.db.WithContext(ctx).Take(&playlist, "id = ?", playlistID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fault.NotFound("playlist not found")
	}
	if err != nil {
		return fmt.Errorf("verify playlist owner: %w", err)
	}
	if playlist.OwnerID != ownerID {
		return fault.Forbidden("you do not have access to this playlist")
	}
	return nil
}

func (s *Service) ensureSongExists(ctx context.Context, songID string) error {
	var count int64
	err := s.db.WithContext(ctx).Table("songs").
		Where("id = ?", songID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("ensure song exists: %w", err)
	}
	if count == 0 {
		return fault.NotFound("song not found")
	}
	return nil
}
