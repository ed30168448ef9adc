package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/nomenklatur/openmusic/internal/fault"
	"gorm.io/gorm"
)

var errMissingSessionDatabase = errors.New("auth: database handle is required")

// RefreshToken records an issued refresh token. Presence in this table is
// what keeps the token valid; logout deletes the row.
type RefreshToken struct {
	Token string `gorm:"column:token;primaryKey;type:text;not null"`
}

// TableName provides the explicit table binding for GORM.
func (RefreshToken) TableName() string {
	return "authentications"
}

// SessionStore persists issued refresh tokens.
type SessionStore struct {
	db *gorm.DB
}

// NewSessionStore constructs a SessionStore over the shared database.
func NewSessionStore(db *gorm.DB) (*SessionStore, error) {
	if db == nil {
		return nil, errMissingSessionDatabase
	}
	return &SessionStore{db: db}, nil
}

// AddRefreshToken records a newly issued refresh token.
func (s *SessionStore) AddRefreshToken(ctx context.Context, token string) error {
	if err := s.db.WithContext(ctx).Create(&RefreshToken{Token: token}).Error; err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// VerifyRefreshToken fails with an invariant fault when the token has been
// revoked or was never issued.
func (s *SessionStore) VerifyRefreshToken(ctx context.Context, token string) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&RefreshToken{}).
		Where("token = ?", token).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("verify refresh token: %w", err)
	}
	if count == 0 {
		return fault.Invariant("refresh token is not valid")
	}
	return nil
}

// DeleteRefreshToken revokes the token.
func (s *SessionStore) DeleteRefreshToken(ctx context.Context, token string) error {
	result := s.db.WithContext(ctx).Where("token = ?", token).Delete(&RefreshToken{})
	if result.Error != nil {
		return fmt.Errorf("delete refresh token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fault.Invariant("refresh token is not valid")
	}
	return nil
}
