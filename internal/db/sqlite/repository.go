// Package sqlite stores API keys in SQLite through gorm, for single-node
// deployments that do not run PostgreSQL.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Flarenzy/keygate/internal/auth"
	"github.com/Flarenzy/keygate/internal/domain"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// KeyRecord is the gorm model behind the api_keys table.
type KeyRecord struct {
	ID        string       `gorm:"primaryKey;size:36"`
	UserID    string       `gorm:"index;not null"`
	Name      string       `gorm:"not null"`
	Prefix    string       `gorm:"not null"`
	KeyHash   string       `gorm:"uniqueIndex;not null"`
	Claims    []auth.Claim `gorm:"serializer:json"`
	CreatedAt time.Time    `gorm:"autoCreateTime"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime"`
	RevokedAt *time.Time   `gorm:"index"`
}

func (KeyRecord) TableName() string {
	return "api_keys"
}

// Open connects to the database at dsn and migrates the schema.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.AutoMigrate(&KeyRecord{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return db, nil
}

type KeyRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewKeyRepository(db *gorm.DB) (*KeyRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite key repository requires database handle")
	}
	return &KeyRepository{db: db, now: time.Now}, nil
}

// active hides revoked keys. Queries that must see them opt out explicitly.
func active(db *gorm.DB) *gorm.DB {
	return db.Where("revoked_at IS NULL")
}

func (r *KeyRepository) ListByUser(ctx context.Context, userID string) ([]domain.APIKey, error) {
	var records []KeyRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at, id").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.APIKey, 0, len(records))
	for _, record := range records {
		out = append(out, toDomainKey(record))
	}
	return out, nil
}

func (r *KeyRepository) FindByID(ctx context.Context, id domain.KeyID) (domain.APIKey, error) {
	if _, err := uuid.Parse(string(id)); err != nil {
		return domain.APIKey{}, fmt.Errorf("%w: invalid key id", domain.ErrInvalidInput)
	}

	var record KeyRecord
	err := r.db.WithContext(ctx).Where("id = ?", string(id)).First(&record).Error
	if err != nil {
		return domain.APIKey{}, translate(err)
	}
	return toDomainKey(record), nil
}

func (r *KeyRepository) FindActiveByHash(ctx context.Context, hash string) (domain.APIKey, error) {
	var record KeyRecord
	err := r.db.WithContext(ctx).
		Scopes(active).
		Where("key_hash = ?", hash).
		First(&record).Error
	if err != nil {
		return domain.APIKey{}, translate(err)
	}
	return toDomainKey(record), nil
}

func (r *KeyRepository) Create(ctx context.Context, input domain.CreateKeyRecord) (domain.APIKey, error) {
	record := KeyRecord{
		ID:      uuid.NewString(),
		UserID:  input.UserID,
		Name:    input.Name,
		Prefix:  input.Prefix,
		KeyHash: input.Hash,
		Claims:  input.Claims,
	}
	if record.Claims == nil {
		record.Claims = []auth.Claim{}
	}

	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return domain.APIKey{}, translate(err)
	}
	return toDomainKey(record), nil
}

func (r *KeyRepository) Revoke(ctx context.Context, id domain.KeyID) (domain.APIKey, error) {
	if _, err := uuid.Parse(string(id)); err != nil {
		return domain.APIKey{}, fmt.Errorf("%w: invalid key id", domain.ErrInvalidInput)
	}

	var record KeyRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(active).Where("id = ?", string(id)).First(&record).Error; err != nil {
			return err
		}
		revokedAt := r.now().UTC()
		if err := tx.Model(&record).Update("revoked_at", revokedAt).Error; err != nil {
			return err
		}
		record.RevokedAt = &revokedAt
		return nil
	})
	if err != nil {
		return domain.APIKey{}, translate(err)
	}
	return toDomainKey(record), nil
}

func toDomainKey(record KeyRecord) domain.APIKey {
	return domain.APIKey{
		ID:        domain.KeyID(record.ID),
		UserID:    record.UserID,
		Name:      record.Name,
		Prefix:    record.Prefix,
		Hash:      record.KeyHash,
		Claims:    record.Claims,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
		RevokedAt: record.RevokedAt,
	}
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrConflict
	default:
		return err
	}
}
