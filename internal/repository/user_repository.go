package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/minsu-hwang/event-ticket-reservation/internal/model"
	"github.com/minsu-hwang/event-ticket-reservation/internal/utils"
)

// UserRepo persists member and guest accounts.  Guests are ordinary user
// rows with the GUEST role and no credentials; the reservation core sees
// only numeric owner ids either way.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// Create inserts a member account and returns its id.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role) VALUES (?,?,?)",
		email, hash, role)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// CreateGuest inserts an ephemeral guest account identified only by a
// device token stored in the email column, and returns its id.
func (r *UserRepo) CreateGuest(ctx context.Context, deviceToken string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role) VALUES (?,'','GUEST')",
		"guest:"+deviceToken)
	if err != nil {
		if isDuplicateKey(err) {
			// Same device logging in again; reuse the existing row.
			var id uint64
			qerr := r.DB.QueryRowContext(ctx,
				"SELECT id FROM users WHERE email=? LIMIT 1", "guest:"+deviceToken).Scan(&id)
			if qerr != nil {
				return 0, qerr
			}
			return id, nil
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,is_active,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,is_active,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
