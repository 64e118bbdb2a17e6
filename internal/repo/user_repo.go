package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/mont-sinai/chorale/internal/model"
	"github.com/mont-sinai/chorale/internal/pkg/dbutil"
	appErr "github.com/mont-sinai/chorale/internal/pkg/errors"
)

var userColumns = []string{"id", "email", "password_hash", "full_name", "role", "status", "refresh_token_hash", "ctime", "mtime"}

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func scanUser(rows *sql.Rows) (*model.User, error) {
	var user model.User
	if err := rows.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.Role, &user.Status, &user.RefreshTokenHash, &user.Ctime, &user.Mtime); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	data := map[string]interface{}{
		"id":                 user.ID,
		"email":              user.Email,
		"password_hash":      user.PasswordHash,
		"full_name":          user.FullName,
		"role":               user.Role,
		"status":             user.Status,
		"refresh_token_hash": user.RefreshTokenHash,
		"ctime":              user.Ctime,
		"mtime":              user.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("users", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *UserRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.User, error) {
	sqlStr, args, err := builder.BuildSelect("users", where, userColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	return scanUser(rows)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, map[string]interface{}{"email": email})
}

func (r *UserRepo) GetByID(ctx context.Context, userID string) (*model.User, error) {
	return r.getOne(ctx, map[string]interface{}{"id": userID})
}

func (r *UserRepo) update(ctx context.Context, userID string, update map[string]interface{}) error {
	where := map[string]interface{}{"id": userID}
	sqlStr, args, err := builder.BuildUpdate("users", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *UserRepo) UpdateStatus(ctx context.Context, userID, status string, mtime int64) error {
	return r.update(ctx, userID, map[string]interface{}{"status": status, "mtime": mtime})
}

// UpdateRefreshTokenHash rotates the stored refresh-token hash. An empty
// hash revokes refresh for the account.
func (r *UserRepo) UpdateRefreshTokenHash(ctx context.Context, userID, hash string, mtime int64) error {
	return r.update(ctx, userID, map[string]interface{}{"refresh_token_hash": hash, "mtime": mtime})
}

func (r *UserRepo) UpdateProfile(ctx context.Context, userID string, email, fullName *string, mtime int64) error {
	update := map[string]interface{}{"mtime": mtime}
	if email != nil {
		update["email"] = *email
	}
	if fullName != nil {
		update["full_name"] = *fullName
	}
	return r.update(ctx, userID, update)
}

func (r *UserRepo) UpdateRole(ctx context.Context, userID, role string, mtime int64) error {
	return r.update(ctx, userID, map[string]interface{}{"role": role, "mtime": mtime})
}

func (r *UserRepo) Delete(ctx context.Context, userID string) error {
	sqlStr, args, err := builder.BuildDelete("users", map[string]interface{}{"id": userID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *UserRepo) List(ctx context.Context, search string, limit, offset uint) ([]model.User, error) {
	sqlStr := `
		SELECT id, email, password_hash, full_name, role, status, refresh_token_hash, ctime, mtime
		FROM users
		WHERE role IN (?, ?)
	`
	args := []interface{}{model.RoleChoriste, model.RoleAdmin}
	if search != "" {
		sqlStr += ` AND (email ILIKE ? OR full_name ILIKE ?)`
		like := "%" + search + "%"
		args = append(args, like, like)
	}
	sqlStr += ` ORDER BY ctime DESC`
	if limit > 0 {
		sqlStr += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *user)
	}
	return items, rows.Err()
}

// ListTeam returns the choriste roster for the public team page.
func (r *UserRepo) ListTeam(ctx context.Context, search string) ([]model.User, error) {
	sqlStr := `
		SELECT id, email, password_hash, full_name, role, status, refresh_token_hash, ctime, mtime
		FROM users
		WHERE role = ?
	`
	args := []interface{}{model.RoleChoriste}
	if search != "" {
		sqlStr += ` AND (email ILIKE ? OR full_name ILIKE ?)`
		like := "%" + search + "%"
		args = append(args, like, like)
	}
	sqlStr += ` ORDER BY full_name ASC`
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *user)
	}
	return items, rows.Err()
}

func (r *UserRepo) Count(ctx context.Context, search string) (int, error) {
	sqlStr := `SELECT COUNT(*) FROM users WHERE role IN (?, ?)`
	args := []interface{}{model.RoleChoriste, model.RoleAdmin}
	if search != "" {
		sqlStr += ` AND (email ILIKE ? OR full_name ILIKE ?)`
		like := "%" + search + "%"
		args = append(args, like, like)
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *UserRepo) CountByRole(ctx context.Context, role string) (int, error) {
	sqlStr, args := dbutil.Finalize(`SELECT COUNT(*) FROM users WHERE role = ?`, []interface{}{role})
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteUnverifiedBefore removes accounts still waiting on email
// verification that were created before cutoff. Used by the cleanup job.
func (r *UserRepo) DeleteUnverifiedBefore(ctx context.Context, cutoff int64) (int64, error) {
	sqlStr, args := dbutil.Finalize(
		`DELETE FROM users WHERE status = ? AND ctime < ?`,
		[]interface{}{model.StatusPendingEmailVerification, cutoff},
	)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
