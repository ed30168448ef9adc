// Package exports hands playlist export requests off to a background
// worker through the message queue. The export itself (building the file,
// emailing it) happens in a separate consumer service.
package exports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/nomenklatur/openmusic/internal/fault"
	"github.com/nomenklatur/openmusic/internal/queue"
	"go.uber.org/zap"
)

// QueueName is the fixed queue consumed by the export worker.
const QueueName = "playlist"

var (
	errMissingVerifier  = errors.New("exports: ownership verifier is required")
	errMissingPublisher = errors.New("exports: publisher is required")
)

// OwnershipVerifier gates exports on playlist ownership.
type OwnershipVerifier interface {
	VerifyOwner(ctx context.Context, playlistID, ownerID string) error
}

// ServiceConfig describes the dependencies of the export service.
type ServiceConfig struct {
	Playlists OwnershipVerifier
	Publisher queue.Publisher
	Logger    *zap.Logger
}

// Service validates and publishes export jobs.
type Service struct {
	playlists OwnershipVerifier
	publisher queue.Publisher
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewService validates dependencies and constructs the export service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Playlists == nil {
		return nil, errMissingVerifier
	}
	if cfg.Publisher == nil {
		return nil, errMissingPublisher
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		playlists: cfg.Playlists,
		publisher: cfg.Publisher,
		validate:  validator.New(),
		logger:    logger,
	}, nil
}

type exportMessage struct {
	PlaylistID  string `json:"playlistId"`
	TargetEmail string `json:"targetEmail"`
}

// RequestExport validates the target email, confirms the requester owns
// the playlist, and publishes the job. It returns once the broker has
// acknowledged the message; completion is signalled to the user by the
// consumer, not by this call. Publish failures propagate without retry.
func (s *Service) RequestExport(ctx context.Context, playlistID, requesterID, targetEmail string) error {
	if err := s.validate.Var(targetEmail, "required,email"); err != nil {
		return fault.Invariant("target email is not a valid email address")
	}

	if err := s.playlists.VerifyOwner(ctx, playlistID, requesterID); err != nil {
		return err
	}

	body, err := json.Marshal(exportMessage{
		PlaylistID:  playlistID,
		TargetEmail: targetEmail,
	})
	if err != nil {
		return fmt.Errorf("marshal export message: %w", err)
	}

	if err := s.publisher.Publish(ctx, QueueName, body); err != nil {
		s.logger.Error("export publish failed",
			zap.String("playlist_id", playlistID), zap.Error(err))
		return fmt.Errorf("publish export message: %w", err)
	}

	s.logger.Info("export requested",
		zap.String("playlist_id", playlistID), zap.String("queue", QueueName))
	return nil
}
