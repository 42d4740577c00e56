// Package users stores accounts and verifies credentials.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/adriian-oc/oposiciones-app/internal/apperr"
	"github.com/adriian-oc/oposiciones-app/internal/rbac"
)

type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type Store struct {
	db *sql.DB
	// Cost is the bcrypt work factor for new hashes.
	Cost int
}

func NewStore(db *sql.DB) *Store { return &Store{db: db, Cost: 12} }

type NewUser struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Register creates a student account.
func (s *Store) Register(ctx context.Context, in NewUser) (User, error) {
	return s.create(ctx, in, rbac.RoleStudent)
}

func (s *Store) create(ctx context.Context, in NewUser, role string) (User, error) {
	email := normalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, apperr.New(apperr.InvalidArgument, "Invalid email address")
	}
	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		return User{}, apperr.New(apperr.InvalidArgument, "display_name is required")
	}
	if len(in.Password) < 6 {
		return User{}, apperr.New(apperr.InvalidArgument, "Password must have at least 6 characters")
	}
	exists, err := s.emailExists(ctx, email)
	if err != nil {
		return User{}, err
	}
	if exists {
		return User{}, apperr.New(apperr.InvalidArgument, "Email already registered")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.Cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	u := User{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: name,
		Role:        role,
		IsActive:    true,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id,email,display_name,role,password_hash,active,created_at) VALUES ($1,$2,$3,$4,$5,1,$6)`,
		u.ID, u.Email, u.DisplayName, u.Role, string(hash), u.CreatedAt.Unix())
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *Store) emailExists(ctx context.Context, email string) (bool, error) {
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE email=$1`, email).Scan(new(int))
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup email: %w", err)
	}
	return true, nil
}

// Authenticate checks email and password.
func (s *Store) Authenticate(ctx context.Context, email, password string) (User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,email,display_name,role,active,created_at,password_hash FROM users WHERE email=$1`,
		normalizeEmail(email))
	u, hash, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, apperr.New(apperr.Unauthorized, "Incorrect email or password")
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, apperr.New(apperr.Unauthorized, "Incorrect email or password")
	}
	if !u.IsActive {
		return User{}, apperr.New(apperr.InvalidArgument, "Inactive user")
	}
	return u, nil
}

func (s *Store) Get(ctx context.Context, id string) (User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,email,display_name,role,active,created_at,password_hash FROM users WHERE id=$1`, id)
	u, _, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, apperr.New(apperr.NotFound, "User not found")
	}
	return u, err
}

func (s *Store) List(ctx context.Context, role string) ([]User, error) {
	q := `SELECT id,email,display_name,role,active,created_at,password_hash FROM users`
	var args []any
	if role != "" {
		q += ` WHERE role=$1`
		args = append(args, role)
	}
	q += ` ORDER BY email`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	out := []User{}
	for rows.Next() {
		u, _, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateRole changes a user's role; the last admin cannot be demoted.
func (s *Store) UpdateRole(ctx context.Context, id, role string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	if !rbac.ValidRole(role) {
		return apperr.New(apperr.InvalidArgument, "Invalid role")
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if u.Role == rbac.RoleAdmin && role != rbac.RoleAdmin {
		var admins int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE role='admin'`).Scan(&admins); err != nil {
			return fmt.Errorf("count admins: %w", err)
		}
		if admins <= 1 {
			return apperr.New(apperr.InvalidState, "Cannot demote the last admin")
		}
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET role=$1 WHERE id=$2`, role, id); err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	return nil
}

// EnsureAdmin creates an admin account unless the email is already registered.
func (s *Store) EnsureAdmin(ctx context.Context, email, password string) (created bool, err error) {
	exists, err := s.emailExists(ctx, normalizeEmail(email))
	if err != nil || exists {
		return false, err
	}
	if _, err := s.create(ctx, NewUser{Email: email, DisplayName: "Administrator", Password: password}, rbac.RoleAdmin); err != nil {
		return false, err
	}
	return true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (User, string, error) {
	var (
		u       User
		active  int
		created int64
		hash    string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &active, &created, &hash); err != nil {
		return User{}, "", err
	}
	u.IsActive = active != 0
	u.CreatedAt = time.Unix(created, 0).UTC()
	return u, hash, nil
}
