package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/stemsi/siakad-backend/internal/model"
)

var userColumns = []string{
	"id", "username", "email", "password_hash", "full_name", "phone",
	"role", "is_active", "last_login", "created_at", "updated_at",
}

type userRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

func scanUser(row interface{ Scan(dest ...any) error }) (*model.User, error) {
	u := &model.User{}
	var role string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone,
		&role, &u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	u.Role = model.Role(role)
	return u, nil
}

func (r *userRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*model.User, error) {
	query, args, err := r.sb.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user query: %w", err)
	}
	return scanUser(r.db.QueryRow(ctx, query, args...))
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves a user by exact email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

// GetByLogin retrieves a user whose username or email equals login.
func (r *userRepository) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	return r.getOne(ctx, squirrel.Or{squirrel.Eq{"username": login}, squirrel.Eq{"email": login}})
}

func (r *userRepository) exists(ctx context.Context, column, value string, excludeID int) (bool, error) {
	where := squirrel.And{squirrel.Eq{column: value}}
	if excludeID > 0 {
		where = append(where, squirrel.NotEq{"id": excludeID})
	}
	query, args, err := r.sb.Select("1").From("users").Where(where).
		Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, mapError(err)
	}
	return exists, nil
}

// UsernameExists checks whether another user already holds username.
func (r *userRepository) UsernameExists(ctx context.Context, username string, excludeID int) (bool, error) {
	return r.exists(ctx, "username", username, excludeID)
}

// EmailExists checks whether another user already holds email.
func (r *userRepository) EmailExists(ctx context.Context, email string, excludeID int) (bool, error) {
	return r.exists(ctx, "email", email, excludeID)
}

// Create inserts a new user.
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query, args, err := r.sb.Insert("users").
		Columns("username", "email", "password_hash", "full_name", "phone", "role", "is_active").
		Values(u.Username, u.Email, u.PasswordHash, u.FullName, u.Phone, string(u.Role), u.IsActive).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create user query: %w", err)
	}
	return mapError(r.db.QueryRow(ctx, query, args...).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt))
}

// Update modifies a user's profile fields (excluding password).
func (r *userRepository) Update(ctx context.Context, u *model.User) error {
	query, args, err := r.sb.Update("users").
		Set("username", u.Username).
		Set("email", u.Email).
		Set("full_name", u.FullName).
		Set("phone", u.Phone).
		Set("role", string(u.Role)).
		Set("is_active", u.IsActive).
		Set("updated_at", squirrel.Expr("CURRENT_TIMESTAMP")).
		Where(squirrel.Eq{"id": u.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update user query: %w", err)
	}
	return mapError(r.db.QueryRow(ctx, query, args...).Scan(&u.UpdatedAt))
}

// UpdatePassword replaces a user's password hash.
func (r *userRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		passwordHash, id,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastLogin records a successful login.
func (r *userRepository) TouchLastLogin(ctx context.Context, id int) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE id = $1`, id)
	return mapError(err)
}

// Delete removes a user. The administrator record goes with it via ON DELETE CASCADE.
func (r *userRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func userFilterWhere(filter model.UserFilter) squirrel.And {
	where := squirrel.And{}
	if filter.Role != "" {
		where = append(where, squirrel.Eq{"role": string(filter.Role)})
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		where = append(where, squirrel.Or{
			squirrel.ILike{"username": p},
			squirrel.ILike{"email": p},
			squirrel.ILike{"full_name": p},
		})
	}
	return where
}

// List retrieves users with pagination, newest first.
func (r *userRepository) List(ctx context.Context, filter model.UserFilter, limit, offset int) ([]model.User, int, error) {
	where := userFilterWhere(filter)

	countQuery, countArgs, err := r.sb.Select("COUNT(*)").From("users").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count users query: %w", err)
	}
	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	query, args, err := r.sb.Select(userColumns...).From("users").Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list users query: %w", err)
	}

	users, err := r.query(ctx, query, args...)
	return users, total, err
}

// ListByRole retrieves every user with the given role ordered by id.
func (r *userRepository) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	query, args, err := r.sb.Select(userColumns...).From("users").
		Where(squirrel.Eq{"role": string(role)}).OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build users by role query: %w", err)
	}
	return r.query(ctx, query, args...)
}

func (r *userRepository) query(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, mapError(rows.Err())
}

// ActivateInactive marks every inactive user active and returns how many changed.
func (r *userRepository) ActivateInactive(ctx context.Context) (int, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET is_active = TRUE, updated_at = CURRENT_TIMESTAMP WHERE is_active = FALSE`)
	if err != nil {
		return 0, mapError(err)
	}
	return int(tag.RowsAffected()), nil
}
