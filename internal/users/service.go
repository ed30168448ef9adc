package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/nomenklatur/openmusic/internal/fault"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	errMissingDatabase   = errors.New("users: database handle is required")
	errMissingIDProvider = errors.New("users: id provider is required")
)

// IDProvider issues unique identifier suffixes for new rows.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies of the users service.
type ServiceConfig struct {
	Database   *gorm.DB
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service manages account registration and credential verification.
type Service struct {
	db         *gorm.DB
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService validates dependencies and constructs the users service.
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

// Register creates a new account with a bcrypt-hashed password and returns
// the generated user identifier. Usernames must be unique.
func (s *Service) Register(ctx context.Context, username, password, fullname string) (string, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&User{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		return "", fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return "", fault.Invariant("username is already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	suffix, err := s.idProvider.NewID()
	if err != nil {
		return "", fmt.Errorf("register user: %w", err)
	}
	user := User{
		ID:       "user-" + suffix,
		Username: username,
		Password: string(hash),
		Fullname: fullname,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		s.logger.Error("user insert failed", zap.Error(err))
		return "", fault.Invariant("user was not registered")
	}
	return user.ID, nil
}

// VerifyCredential checks the username/password pair and returns the user
// identifier. Unknown usernames and wrong passwords fail identically.
func (s *Service) VerifyCredential(ctx context.Context, username, password string) (string, error) {
	var user User
	err := s.db.WithContext(ctx).Take(&user, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fault.Unauthenticated("credential is not valid")
	}
	if err != nil {
		return "", fmt.Errorf("verify credential: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", fault.Unauthenticated("credential is not valid")
	}
	return user.ID, nil
}
