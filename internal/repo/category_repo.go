package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/mont-sinai/chorale/internal/model"
	"github.com/mont-sinai/chorale/internal/pkg/dbutil"
	appErr "github.com/mont-sinai/chorale/internal/pkg/errors"
)

var categoryColumns = []string{"id", "catalogue_id", "name", "description", "ctime", "mtime"}

type CategoryRepo struct {
	db *sql.DB
}

func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

func scanCategory(rows *sql.Rows) (*model.Category, error) {
	var item model.Category
	if err := rows.Scan(&item.ID, &item.CatalogueID, &item.Name, &item.Description, &item.Ctime, &item.Mtime); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *CategoryRepo) Create(ctx context.Context, cat *model.Category) error {
	data := map[string]interface{}{
		"id":           cat.ID,
		"catalogue_id": cat.CatalogueID,
		"name":         cat.Name,
		"description":  cat.Description,
		"ctime":        cat.Ctime,
		"mtime":        cat.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("categories", []map[string]interface{}{data})
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

func (r *CategoryRepo) GetByID(ctx context.Context, id string) (*model.Category, error) {
	sqlStr, args, err := builder.BuildSelect("categories", map[string]interface{}{"id": id}, categoryColumns)
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
	return scanCategory(rows)
}

func (r *CategoryRepo) List(ctx context.Context, search string, limit, offset uint) ([]model.Category, error) {
	sqlStr := `
		SELECT id, catalogue_id, name, description, ctime, mtime
		FROM categories
	`
	args := []interface{}{}
	if search != "" {
		sqlStr += ` WHERE name ILIKE ?`
		args = append(args, "%"+search+"%")
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
	items := make([]model.Category, 0)
	for rows.Next() {
		item, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *CategoryRepo) Count(ctx context.Context, search string) (int, error) {
	sqlStr := `SELECT COUNT(*) FROM categories`
	args := []interface{}{}
	if search != "" {
		sqlStr += ` WHERE name ILIKE ?`
		args = append(args, "%"+search+"%")
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *CategoryRepo) Update(ctx context.Context, id string, name, description *string, mtime int64) error {
	update := map[string]interface{}{"mtime": mtime}
	if name != nil {
		update["name"] = *name
	}
	if description != nil {
		update["description"] = *description
	}
	sqlStr, args, err := builder.BuildUpdate("categories", map[string]interface{}{"id": id}, update)
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

func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	sqlStr, args, err := builder.BuildDelete("categories", map[string]interface{}{"id": id})
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
