package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/uptrace/bun"

	"github.com/filesure/referral-rewards-api/internal/database"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrConflict signals a duplicate key on id or referral code. Both are
	// produced by racing registrations and are retryable with fresh values.
	ErrConflict = errors.New("conflicting user record")
)

// Repository handles user data persistence. It accepts bun.IDB so the same
// methods run against the pooled DB or inside a transaction.
type Repository struct {
	db bun.IDB
}

func NewRepository(db bun.IDB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *Repository) WithTx(tx bun.Tx) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new user into the database
func (r *Repository) Create(ctx context.Context, u *User) error {
	dbUser := mapModelToDBUser(u)

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			if pqErr.Constraint == "users_email_key" {
				return ErrDuplicateEmail
			}
			// id or referral_code collision from a racing registration
			return ErrConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	*u = *mapDBUserToModel(dbUser)
	return nil
}

// GetByID retrieves a user by their sequential id
func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, false, "u.id = ?", id)
}

// GetByIDForUpdate retrieves a user by id and locks the row for the
// duration of the enclosing transaction. This is the serialization point
// of the first-purchase workflow: two concurrent purchases by the same
// buyer queue up here.
func (r *Repository) GetByIDForUpdate(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, true, "u.id = ?", id)
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, false, "u.email = ?", email)
}

// GetByEmailOrID resolves a login identifier that may be either an email
// address or a user id
func (r *Repository) GetByEmailOrID(ctx context.Context, identifier string) (*User, error) {
	return r.getOne(ctx, false, "u.email = ? OR u.id = ?", identifier, identifier)
}

// GetByReferralCode retrieves the user owning a referral code
func (r *Repository) GetByReferralCode(ctx context.Context, code string) (*User, error) {
	return r.getOne(ctx, false, "u.referral_code = ?", code)
}

func (r *Repository) getOne(ctx context.Context, forUpdate bool, where string, args ...any) (*User, error) {
	dbUser := new(database.User)
	q := r.db.NewSelect().
		Model(dbUser).
		Where(where, args...)
	if forUpdate {
		q = q.For("UPDATE")
	}

	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// LastAssignedID returns the highest id allocated to a role=user account,
// or "" when none exists yet. The row is locked so concurrent registrations
// serialize on the allocation; a duplicate-key failure on insert remains
// the backstop.
func (r *Repository) LastAssignedID(ctx context.Context) (string, error) {
	var id string
	err := r.db.NewSelect().
		Model((*database.User)(nil)).
		Column("id").
		Where("role = ?", RoleUser).
		Order("id DESC").
		Limit(1).
		For("UPDATE").
		Scan(ctx, &id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read last user id: %w", err)
	}

	return id, nil
}

// MarkFirstPurchase flips has_purchased and grants the buyer credit in one
// statement. Only the Purchase workflow calls this.
func (r *Repository) MarkFirstPurchase(ctx context.Context, id string, credits int) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("has_purchased = ?", true).
		Set("credits = credits + ?", credits).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark first purchase: %w", err)
	}

	return requireRowsAffected(result)
}

// AddCredits increments a user's credit balance
func (r *Repository) AddCredits(ctx context.Context, id string, credits int) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("credits = credits + ?", credits).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to add credits: %w", err)
	}

	return requireRowsAffected(result)
}

// UpdatePassword replaces the password hash and stamps the change so that
// previously issued credentials are invalidated
func (r *Repository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("password_changed_at = NOW()").
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return requireRowsAffected(result)
}

// UpdateStatus sets a user's status (active or blocked)
func (r *Repository) UpdateStatus(ctx context.Context, id string, status string) (*User, error) {
	dbUser := new(database.User)
	result, err := r.db.NewUpdate().
		Model(dbUser).
		Set("status = ?", status).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	if err := requireRowsAffected(result); err != nil {
		return nil, err
	}

	return mapDBUserToModel(dbUser), nil
}

func requireRowsAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:                dbu.ID,
		Name:              dbu.Name,
		Email:             dbu.Email,
		PasswordHash:      dbu.PasswordHash,
		Role:              dbu.Role,
		Status:            dbu.Status,
		IsDeleted:         dbu.IsDeleted,
		ReferralCode:      dbu.ReferralCode,
		ReferredBy:        dbu.ReferredBy,
		Credits:           dbu.Credits,
		HasPurchased:      dbu.HasPurchased,
		PasswordChangedAt: dbu.PasswordChangedAt,
		CreatedAt:         dbu.CreatedAt,
		UpdatedAt:         dbu.UpdatedAt,
	}
}

func mapModelToDBUser(u *User) *database.User {
	return &database.User{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		PasswordHash:      u.PasswordHash,
		Role:              u.Role,
		Status:            u.Status,
		IsDeleted:         u.IsDeleted,
		ReferralCode:      u.ReferralCode,
		ReferredBy:        u.ReferredBy,
		Credits:           u.Credits,
		HasPurchased:      u.HasPurchased,
		PasswordChangedAt: u.PasswordChangedAt,
	}
}
