package database

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Like toggles run a non-transactional check-then-act, so concurrent
// toggles for the same (user, album) pair can leave duplicate rows. This
// repair removes historical duplicates; the toggle itself stays racy.
const migrationDedupeAlbumLikes = "2026-05-10_dedupe_album_likes"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationDedupeAlbumLikes, apply: dedupeAlbumLikes},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

func dedupeAlbumLikes(db *gorm.DB) error {
	return db.Exec(`DELETE FROM user_album_likes
		WHERE id NOT IN (
			SELECT MIN(id) FROM user_album_likes GROUP BY user_id, album_id
		);`).Error
}
