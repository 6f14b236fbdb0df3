package lead

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	// ErrInvalidEmail is returned for addresses that do not parse.
	ErrInvalidEmail = errors.New("invalid e-mail address")
)

// Lead is a captured e-mail address.
type Lead struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	UserID    string    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

const schemaSQL = `CREATE TABLE IF NOT EXISTS leads (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	user_id TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
)`

// Store persists leads in SQLite.
type Store struct {
	mu  sync.Mutex
	db  *sql.DB
	now func() time.Time
}

// Open opens (and migrates) the database at path. ":memory:" is accepted.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open leads database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate leads database: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add validates and stores an address together with the signed-in user, if
// any. Re-submitting a known address returns the existing lead.
func (s *Store) Add(ctx context.Context, email, userID string) (Lead, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return Lead{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok, err := s.find(ctx, normalized); err != nil {
		return Lead{}, err
	} else if ok {
		return existing, nil
	}

	lead := Lead{ID: uuid.NewString(), Email: normalized, UserID: userID, CreatedAt: s.now().UTC()}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leads (id, email, user_id, created_at) VALUES (?, ?, ?, ?)`,
		lead.ID, lead.Email, lead.UserID, lead.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Lead{}, fmt.Errorf("insert lead: %w", err)
	}
	return lead, nil
}

// List returns every lead, oldest first.
func (s *Store) List(ctx context.Context) ([]Lead, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, email, user_id, created_at FROM leads ORDER BY created_at, email`)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (s *Store) find(ctx context.Context, email string) (Lead, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, email, user_id, created_at FROM leads WHERE email = ?`, email)
	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Lead{}, false, nil
	}
	if err != nil {
		return Lead{}, false, err
	}
	return lead, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLead(row scanner) (Lead, error) {
	var lead Lead
	var created string
	if err := row.Scan(&lead.ID, &lead.Email, &lead.UserID, &created); err != nil {
		return Lead{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Lead{}, fmt.Errorf("parse lead timestamp: %w", err)
	}
	lead.CreatedAt = ts
	return lead, nil
}

// NormalizeEmail trims and lowercases a bare address, rejecting display
// names and anything without a dotted domain.
func NormalizeEmail(email string) (string, error) {
	trimmed := strings.TrimSpace(email)
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed || addr.Name != "" {
		return "", ErrInvalidEmail
	}
	at := strings.LastIndex(addr.Address, "@")
	domain := addr.Address[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}
