// Package session persists the small amount of client state the browser kept
// in local storage: the registered user and their saved location.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type User struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}

type Location struct {
	UserID    int64
	Place     string
	Lat       float64
	Lng       float64
	UpdatedAt time.Time
}

type DB struct {
	db *sql.DB
}

func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &DB{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

func (s *DB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			phone TEXT,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS user_locations (
			user_id INTEGER PRIMARY KEY,
			place TEXT NOT NULL,
			lat REAL,
			lng REAL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *DB) Close() error {
	return s.db.Close()
}

// RegisterUser stores a user, reusing the existing row when the email is
// already known. Registration is mocked: there are no credentials.
func (s *DB) RegisterUser(ctx context.Context, u *User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (name, email, phone, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET name = excluded.name, phone = excluded.phone
	`, u.Name, u.Email, u.Phone, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("error registering user: %w", err)
	}

	// LastInsertId is unreliable on conflict-update, so read the row back.
	existing, err := s.GetUserByEmail(ctx, u.Email)
	if err != nil {
		return err
	}
	u.ID = existing.ID
	return nil
}

func (s *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, created_at FROM users WHERE email = ?
	`, email)

	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return &u, nil
}

// SaveLocation stores or replaces the user's saved location.
func (s *DB) SaveLocation(ctx context.Context, loc *Location) error {
	loc.UpdatedAt = time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_locations (user_id, place, lat, lng, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			place = excluded.place,
			lat = excluded.lat,
			lng = excluded.lng,
			updated_at = excluded.updated_at
	`, loc.UserID, loc.Place, loc.Lat, loc.Lng, loc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error saving location: %w", err)
	}
	return nil
}

func (s *DB) GetLocation(ctx context.Context, userID int64) (*Location, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, place, lat, lng, updated_at FROM user_locations WHERE user_id = ?
	`, userID)

	var loc Location
	err := row.Scan(&loc.UserID, &loc.Place, &loc.Lat, &loc.Lng, &loc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error loading location: %w", err)
	}
	return &loc, nil
}

// SavedPlace returns the most recently saved place name across all users,
// used as the live view's default region match. Empty when nothing is saved.
func (s *DB) SavedPlace(ctx context.Context) (string, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT place FROM user_locations ORDER BY updated_at DESC LIMIT 1
	`)

	var place string
	err := row.Scan(&place)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("error loading saved place: %w", err)
	}
	return place, nil
}
