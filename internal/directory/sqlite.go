// Package directory is the SQLite-backed company directory and user
// table. Assessment documents live as flat JSON files; only the
// directory entities that the rest of the CRM shares sit in SQLite.
package directory

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/kestrelcrm/kestrel/internal/services"
)

const schema = `
CREATE TABLE IF NOT EXISTS companies (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS users (
    id         TEXT PRIMARY KEY,
    email      TEXT NOT NULL UNIQUE,
    pass_hash  BLOB NOT NULL,
    created_at TIMESTAMP NOT NULL
);
`

type Store struct {
	db *sql.DB
}

var (
	_ services.CompanyStore = (*Store)(nil)
	_ services.AuthStore    = (*Store)(nil)
)

// Open opens (creating if needed) the directory database at path and
// applies the schema. The caller owns closing the store.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(path))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return NewStore(db)
}

func NewStore(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) AddCompany(c *services.Company) error {
	_, err := s.db.Exec(
		"INSERT INTO companies (id, name, created_at) VALUES (?, ?, ?)",
		c.ID, c.Name, c.CreatedAt,
	)
	return err
}

func (s *Store) GetCompany(id string) (*services.Company, error) {
	row := s.db.QueryRow("SELECT id, name, created_at FROM companies WHERE id = ?", id)
	return scanCompany(row)
}

func (s *Store) FindCompanyByName(name string) (*services.Company, error) {
	row := s.db.QueryRow("SELECT id, name, created_at FROM companies WHERE name = ?", name)
	return scanCompany(row)
}

func (s *Store) ListCompanies() ([]*services.Company, error) {
	rows, err := s.db.Query("SELECT id, name, created_at FROM companies ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*services.Company{}
	for rows.Next() {
		var c services.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *Store) FindUserByEmail(email string) (*services.User, error) {
	row := s.db.QueryRow("SELECT id, email, pass_hash, created_at FROM users WHERE email = ?", email)
	var u services.User
	var created time.Time
	if err := row.Scan(&u.ID, &u.Email, &u.PassHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.CreatedAt = created
	return &u, nil
}

func (s *Store) AddUser(u *services.User) error {
	_, err := s.db.Exec(
		"INSERT INTO users (id, email, pass_hash, created_at) VALUES (?, ?, ?, ?)",
		u.ID, u.Email, u.PassHash, u.CreatedAt,
	)
	return err
}

func scanCompany(row *sql.Row) (*services.Company, error) {
	var c services.Company
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
