package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ayush/megaqc-web/internal/models"
)

// userIDLockKey serializes id allocation across concurrent registrations.
const userIDLockKey int64 = 0x6d6571637573

const userColumns = `id, username, email, password, first_name, last_name, active, is_admin, api_token, created_at`

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore handles user CRUD against PostgreSQL.
type PostgresStore struct {
	pool DB
}

func NewPostgresStore(pool DB) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the users table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         BIGINT       PRIMARY KEY,
			username   VARCHAR(80)  UNIQUE NOT NULL,
			email      VARCHAR(80)  UNIQUE NOT NULL,
			password   VARCHAR(255) NOT NULL,
			first_name VARCHAR(80)  NOT NULL DEFAULT '',
			last_name  VARCHAR(80)  NOT NULL DEFAULT '',
			active     BOOLEAN      NOT NULL DEFAULT FALSE,
			is_admin   BOOLEAN      NOT NULL DEFAULT FALSE,
			api_token  VARCHAR(80)  UNIQUE NOT NULL,
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

// CreateUser inserts a user with id = max(id)+1. The advisory lock is held
// for the whole transaction so two registrations never read the same max.
func (s *PostgresStore) CreateUser(ctx context.Context, nu models.NewUser) (*models.User, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("create user: begin: %w", err)
	}
	u, err := insertNextUser(ctx, tx, nu)
	if err != nil {
		_ = tx.Rollback(ctx)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("create user: %w", ErrDuplicate)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("create user: commit: %w", err)
	}
	return u, nil
}

func insertNextUser(ctx context.Context, tx pgx.Tx, nu models.NewUser) (*models.User, error) {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, userIDLockKey); err != nil {
		return nil, fmt.Errorf("lock user ids: %w", err)
	}
	var next int64
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM users`).Scan(&next); err != nil {
		return nil, fmt.Errorf("next user id: %w", err)
	}
	var u models.User
	row := tx.QueryRow(ctx,
		`INSERT INTO users (id, username, email, password, first_name, last_name, active, api_token)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+userColumns,
		next, nu.Username, nu.Email, nu.PasswordHash, nu.FirstName, nu.LastName, nu.Active, nu.APIToken,
	)
	if err := scanUser(row, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (s *PostgresStore) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	if err := scanUser(s.pool.QueryRow(ctx, query, arg), &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func scanUser(row pgx.Row, u *models.User) error {
	return row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName,
		&u.LastName, &u.Active, &u.IsAdmin, &u.APIToken, &u.CreatedAt)
}
