package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"thinkhub/internal/model"
	"thinkhub/pkg/util"
)

type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	r.logger.Debug("Inserting user", zap.String("user_id", u.ID))

	query := `
        INSERT INTO users (id, name, email, image, password_hash, created_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
        RETURNING created_at
    `
	err := r.db.QueryRow(ctx, query, u.ID, u.Name, u.Email, u.Image, u.PasswordHash).Scan(&u.CreatedAt)
	if err != nil {
		if util.IsUniqueViolation(err) {
			return ErrConflict
		}
		r.logger.Error("Failed to insert user", zap.String("user_id", u.ID), zap.Error(err))
		return err
	}

	r.logger.Info("User inserted successfully", zap.String("user_id", u.ID))
	return nil
}

// FindByEmail returns user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
        SELECT id, name, email, image, password_hash, created_at
        FROM users
        WHERE lower(email) = lower($1)
    `
	var u model.User
	err := r.db.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Name, &u.Email, &u.Image, &u.PasswordHash, &u.CreatedAt,
	)
	if err != nil {
		if util.IsNoRows(err) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to find user by email", zap.Error(err))
		return nil, err
	}
	return &u, nil
}

// Summaries returns display data for the given user ids; unknown ids are skipped.
func (r *UserRepository) Summaries(ctx context.Context, ids []string) (map[string]model.UserSummary, error) {
	out := make(map[string]model.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx, `SELECT id, name, image FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		r.logger.Error("Failed to query user summaries", zap.Int("count", len(ids)), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s model.UserSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Image); err != nil {
			r.logger.Error("Failed to scan user summary", zap.Error(err))
			return nil, err
		}
		out[s.ID] = s
	}
	return out, rows.Err()
}
