package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/store"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS transactions (
    id            TEXT PRIMARY KEY,
    uid           TEXT NOT NULL,
    type          TEXT NOT NULL CHECK (type IN ('income', 'expense')),
    title         TEXT NOT NULL,
    amount        DOUBLE PRECISION NOT NULL CHECK (amount > 0),
    category      TEXT NOT NULL,
    note          TEXT NOT NULL DEFAULT '',
    tx_date       DATE,
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_transactions_uid_created
    ON transactions (uid, created_at DESC);

CREATE TABLE IF NOT EXISTS users (
    uid           TEXT PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    display_name  TEXT NOT NULL DEFAULT '',
    password_hash BYTEA NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL
);`

// PostgresRepository persists transactions and user accounts in
// Postgres via a pgx connection pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(ctx context.Context, connURL string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, connURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, uid string) ([]core.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, uid, type, title, amount, category, note, tx_date, created_at, updated_at
		FROM transactions
		WHERE uid = $1
		ORDER BY created_at DESC, id DESC`, uid)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx      core.Transaction
			typ     string
			txDate  *time.Time
			updated *time.Time
		)
		if err := rows.Scan(&tx.ID, &tx.UID, &typ, &tx.Title, &tx.Amount,
			&tx.Category, &tx.Note, &txDate, &tx.CreatedAt, &updated); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Type = core.TransactionType(typ)
		if txDate != nil {
			tx.Date = core.Date{Time: *txDate}
		}
		if updated != nil {
			tx.UpdatedAt = *updated
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.ID = uuid.NewString()
	tx.CreatedAt = time.Now().UTC()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO transactions (id, uid, type, title, amount, category, note, tx_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		tx.ID, tx.UID, tx.Type.String(), tx.Title, tx.Amount, tx.Category, tx.Note,
		nullableDate(tx.Date), tx.CreatedAt, nullableTime(tx.UpdatedAt))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return tx, nil
}

func (r *PostgresRepository) Update(ctx context.Context, uid, id string, tx core.Transaction) error {
	if err := r.checkOwner(ctx, uid, id); err != nil {
		return err
	}

	_, err := r.pool.Exec(ctx, `
		UPDATE transactions
		SET type = $1, title = $2, amount = $3, category = $4, note = $5, tx_date = $6, updated_at = $7
		WHERE id = $8`,
		tx.Type.String(), tx.Title, tx.Amount, tx.Category, tx.Note,
		nullableDate(tx.Date), nullableTime(tx.UpdatedAt), id)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, uid, id string) error {
	if err := r.checkOwner(ctx, uid, id); err != nil {
		return err
	}

	if _, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreateUser(ctx context.Context, u auth.UserRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (uid, email, display_name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		u.UID, strings.ToLower(u.Email), u.DisplayName, u.PasswordHash, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return auth.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UserByEmail(ctx context.Context, email string) (auth.UserRecord, error) {
	var u auth.UserRecord
	err := r.pool.QueryRow(ctx, `
		SELECT uid, email, display_name, password_hash
		FROM users WHERE email = $1`, strings.ToLower(email)).
		Scan(&u.UID, &u.Email, &u.DisplayName, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.UserRecord{}, auth.ErrUserNotFound
	}
	if err != nil {
		return auth.UserRecord{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) UpdateDisplayName(ctx context.Context, uid, name string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET display_name = $1 WHERE uid = $2`, name, uid)
	if err != nil {
		return fmt.Errorf("update display name: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func (r *PostgresRepository) checkOwner(ctx context.Context, uid, id string) error {
	var owner string
	err := r.pool.QueryRow(ctx, `SELECT uid FROM transactions WHERE id = $1`, id).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("query transaction owner: %w", err)
	}
	if owner != uid {
		return store.ErrOwnershipMismatch
	}
	return nil
}

func nullableDate(d core.Date) *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
