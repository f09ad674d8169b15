package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/store"
)

// SQLiteRepository persists transactions and user accounts in a local
// SQLite database. Timestamps are stored as RFC 3339 text.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, uid string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, uid, type, title, amount, category, note, tx_date, created_at, updated_at
		FROM transactions
		WHERE uid = ?
		ORDER BY created_at DESC, id DESC`, uid)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.ID = uuid.NewString()
	tx.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, uid, type, title, amount, category, note, tx_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UID, tx.Type.String(), tx.Title, tx.Amount, tx.Category, tx.Note,
		tx.Date.ISO(), encodeTime(tx.CreatedAt), encodeTime(tx.UpdatedAt))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return tx, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, uid, id string, tx core.Transaction) error {
	if err := r.checkOwner(ctx, uid, id); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET type = ?, title = ?, amount = ?, category = ?, note = ?, tx_date = ?, updated_at = ?
		WHERE id = ?`,
		tx.Type.String(), tx.Title, tx.Amount, tx.Category, tx.Note,
		tx.Date.ISO(), encodeTime(tx.UpdatedAt), id)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, uid, id string) error {
	if err := r.checkOwner(ctx, uid, id); err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u auth.UserRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (uid, email, display_name, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.UID, strings.ToLower(u.Email), u.DisplayName, u.PasswordHash, encodeTime(time.Now().UTC()))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return auth.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (auth.UserRecord, error) {
	var u auth.UserRecord
	err := r.db.QueryRowContext(ctx, `
		SELECT uid, email, display_name, password_hash
		FROM users WHERE email = ?`, strings.ToLower(email)).
		Scan(&u.UID, &u.Email, &u.DisplayName, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.UserRecord{}, auth.ErrUserNotFound
	}
	if err != nil {
		return auth.UserRecord{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) UpdateDisplayName(ctx context.Context, uid, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET display_name = ? WHERE uid = ?`, name, uid)
	if err != nil {
		return fmt.Errorf("update display name: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func (r *SQLiteRepository) checkOwner(ctx context.Context, uid, id string) error {
	var owner string
	err := r.db.QueryRowContext(ctx, `SELECT uid FROM transactions WHERE id = ?`, id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx                           core.Transaction
		typ, txDate, created, updated string
	)
	if err := row.Scan(&tx.ID, &tx.UID, &typ, &tx.Title, &tx.Amount,
		&tx.Category, &tx.Note, &txDate, &created, &updated); err != nil {
		return core.Transaction{}, err
	}
	tx.Type = core.TransactionType(typ)
	if txDate != "" {
		if d, err := core.ParseDate(txDate); err == nil {
			tx.Date = d
		}
	}
	tx.CreatedAt = decodeTime(created)
	tx.UpdatedAt = decodeTime(updated)
	return tx, nil
}

// sqliteTimeLayout is fixed-width so lexicographic order of the stored
// text matches chronological order; RFC3339Nano trims trailing zeros
// and would make ORDER BY created_at diverge from creation order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(sqliteTimeLayout)
}

func decodeTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
