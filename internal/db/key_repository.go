package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Flarenzy/keygate/internal/auth"
	sqlc "github.com/Flarenzy/keygate/internal/db/sqlc"
	"github.com/Flarenzy/keygate/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

const uniqueKeyHashConstraint = "api_keys_key_hash_key"

type KeyRepository struct {
	queries *sqlc.Queries
}

func NewKeyRepository(queries *sqlc.Queries) *KeyRepository {
	return &KeyRepository{queries: queries}
}

func (r *KeyRepository) ListByUser(ctx context.Context, userID string) ([]domain.APIKey, error) {
	rows, err := r.queries.ListAPIKeysByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.APIKey, 0, len(rows))
	for _, row := range rows {
		key, err := toDomainKey(row)
		if err != nil {
			return nil, err
		}
		out = append(out, key)
	}

	return out, nil
}

func (r *KeyRepository) FindByID(ctx context.Context, id domain.KeyID) (domain.APIKey, error) {
	parsedID, err := parseKeyID(id)
	if err != nil {
		return domain.APIKey{}, fmt.Errorf("%w: invalid key id", domain.ErrInvalidInput)
	}

	row, err := r.queries.GetAPIKeyByID(ctx, parsedID)
	if err != nil {
		if isNoRows(err) {
			return domain.APIKey{}, domain.ErrNotFound
		}
		return domain.APIKey{}, err
	}

	return toDomainKey(row)
}

func (r *KeyRepository) FindActiveByHash(ctx context.Context, hash string) (domain.APIKey, error) {
	row, err := r.queries.GetActiveAPIKeyByHash(ctx, hash)
	if err != nil {
		if isNoRows(err) {
			return domain.APIKey{}, domain.ErrNotFound
		}
		return domain.APIKey{}, err
	}

	return toDomainKey(row)
}

func (r *KeyRepository) Create(ctx context.Context, record domain.CreateKeyRecord) (domain.APIKey, error) {
	claims, err := encodeClaims(record.Claims)
	if err != nil {
		return domain.APIKey{}, err
	}

	row, err := r.queries.CreateAPIKey(ctx, sqlc.CreateAPIKeyParams{
		UserID:  record.UserID,
		Name:    record.Name,
		Prefix:  record.Prefix,
		KeyHash: record.Hash,
		Claims:  claims,
	})
	if err != nil {
		if isUniqueHashViolation(err) {
			return domain.APIKey{}, domain.ErrConflict
		}
		return domain.APIKey{}, err
	}

	return toDomainKey(row)
}

func (r *KeyRepository) Revoke(ctx context.Context, id domain.KeyID) (domain.APIKey, error) {
	parsedID, err := parseKeyID(id)
	if err != nil {
		return domain.APIKey{}, fmt.Errorf("%w: invalid key id", domain.ErrInvalidInput)
	}

	row, err := r.queries.RevokeAPIKey(ctx, parsedID)
	if err != nil {
		if isNoRows(err) {
			return domain.APIKey{}, domain.ErrNotFound
		}
		return domain.APIKey{}, err
	}

	return toDomainKey(row)
}

func toDomainKey(row sqlc.ApiKey) (domain.APIKey, error) {
	claims, err := decodeClaims(row.Claims)
	if err != nil {
		return domain.APIKey{}, err
	}

	key := domain.APIKey{
		ID:        domain.KeyID(uuid.UUID(row.ID.Bytes).String()),
		UserID:    row.UserID,
		Name:      row.Name,
		Prefix:    row.Prefix,
		Hash:      row.KeyHash,
		Claims:    claims,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
	if row.RevokedAt.Valid {
		revokedAt := row.RevokedAt.Time
		key.RevokedAt = &revokedAt
	}

	return key, nil
}

func encodeClaims(claims []auth.Claim) ([]byte, error) {
	if claims == nil {
		claims = []auth.Claim{}
	}
	data, err := json.Marshal(claims)
	if err != nil {
		return nil, fmt.Errorf("encode claims: %w", err)
	}
	return data, nil
}

func decodeClaims(data []byte) ([]auth.Claim, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var claims []auth.Claim
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	return claims, nil
}

func parseKeyID(id domain.KeyID) (pgtype.UUID, error) {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return pgtype.UUID{}, err
	}

	return pgtype.UUID{Bytes: u, Valid: true}, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func isUniqueHashViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.ConstraintName == uniqueKeyHashConstraint
}
