package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/stemsi/siakad-backend/internal/model"
)

type administratorRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// GetByUserID retrieves the administrator record attached to a user.
func (r *administratorRepository) GetByUserID(ctx context.Context, userID int) (*model.Administrator, error) {
	a := &model.Administrator{}
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, admin_code, department, assigned_at
		 FROM administrators WHERE user_id = $1`, userID,
	).Scan(&a.ID, &a.UserID, &a.AdminCode, &a.Department, &a.AssignedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

// CodeExists checks whether an admin code is taken by anyone other than excludeUserID.
func (r *administratorRepository) CodeExists(ctx context.Context, code string, excludeUserID int) (bool, error) {
	where := squirrel.And{squirrel.Eq{"admin_code": code}}
	if excludeUserID > 0 {
		where = append(where, squirrel.NotEq{"user_id": excludeUserID})
	}
	query, args, err := r.sb.Select("1").From("administrators").Where(where).
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

// Create inserts a new administrator record.
func (r *administratorRepository) Create(ctx context.Context, a *model.Administrator) error {
	return mapError(r.db.QueryRow(ctx,
		`INSERT INTO administrators (user_id, admin_code, department)
		 VALUES ($1, $2, $3)
		 RETURNING id, assigned_at`,
		a.UserID, a.AdminCode, a.Department,
	).Scan(&a.ID, &a.AssignedAt))
}

// Update modifies the admin code and department.
func (r *administratorRepository) Update(ctx context.Context, a *model.Administrator) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE administrators SET admin_code = $1, department = $2 WHERE user_id = $3`,
		a.AdminCode, a.Department, a.UserID,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByUserID removes the administrator record of a user. Missing records are not an error.
func (r *administratorRepository) DeleteByUserID(ctx context.Context, userID int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM administrators WHERE user_id = $1`, userID)
	return mapError(err)
}
