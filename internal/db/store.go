package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"io.winapps.worklog/internal/journal"
	models "io.winapps.worklog/internal/models/account"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

const uniqueViolation = "23505"

// Store runs the entry and user queries against PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const entryColumns = `id, date, type, privacy, text, COALESCE(link, '')`

// ListEntries returns an owner's entries, newest first. With publicOnly set,
// private entries are left out.
func (s *Store) ListEntries(ctx context.Context, ownerID string, publicOnly bool) ([]journal.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM entries
		WHERE user_id = $1 AND ($2 = FALSE OR privacy = 'public')
		ORDER BY date DESC, id
	`
	rows, err := s.pool.Query(ctx, query, ownerID, publicOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := make([]journal.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}
	return entries, nil
}

// GetEntry returns a single entry owned by ownerID.
func (s *Store) GetEntry(ctx context.Context, entryID, ownerID string) (journal.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1 AND user_id = $2`
	e, err := scanEntry(s.pool.QueryRow(ctx, query, entryID, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return journal.Entry{}, ErrNotFound
	}
	if err != nil {
		return journal.Entry{}, fmt.Errorf("failed to fetch entry: %w", err)
	}
	return e, nil
}

// CreateEntry inserts a new entry for ownerID. A duplicate id yields
// ErrConflict.
func (s *Store) CreateEntry(ctx context.Context, ownerID string, e journal.Entry) error {
	day, err := journal.ParseDate(e.Date)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO entries (id, user_id, date, type, privacy, text, link, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NOW(), NOW())
	`
	_, err = s.pool.Exec(ctx, query, e.ID, ownerID, day, string(e.Type), string(e.Privacy), e.Text, e.Link)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("failed to create entry: %w", err)
	}
	return nil
}

// UpdateEntry overwrites the editable fields of an entry owned by ownerID.
func (s *Store) UpdateEntry(ctx context.Context, ownerID string, e journal.Entry) error {
	day, err := journal.ParseDate(e.Date)
	if err != nil {
		return err
	}

	query := `
		UPDATE entries
		SET date = $1, type = $2, privacy = $3, text = $4, link = NULLIF($5, ''), updated_at = $6
		WHERE id = $7 AND user_id = $8
	`
	result, err := s.pool.Exec(ctx, query, day, string(e.Type), string(e.Privacy), e.Text, e.Link, time.Now(), e.ID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEntry removes an entry owned by ownerID.
func (s *Store) DeleteEntry(ctx context.Context, entryID, ownerID string) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM entries WHERE id = $1 AND user_id = $2`, entryID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const userColumns = `id, username, first_name, last_name, email, created_at`

func (s *Store) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (models.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *Store) getUser(ctx context.Context, query string, arg string) (models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to fetch user: %w", err)
	}
	return u, nil
}

// ListUsers returns every user, oldest account first.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, username`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	return users, nil
}

func scanEntry(row pgx.Row) (journal.Entry, error) {
	var (
		e       journal.Entry
		day     time.Time
		typ     string
		privacy string
	)
	if err := row.Scan(&e.ID, &day, &typ, &privacy, &e.Text, &e.Link); err != nil {
		return journal.Entry{}, err
	}
	e.Date = day.Format(journal.DateFormat)
	e.Type = journal.Type(typ)
	e.Privacy = journal.Privacy(privacy)
	return e, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.First, &u.Last, &u.Email, &u.CreatedAt)
	return u, err
}
