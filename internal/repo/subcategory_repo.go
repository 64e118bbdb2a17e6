package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/mont-sinai/chorale/internal/model"
	"github.com/mont-sinai/chorale/internal/pkg/dbutil"
	appErr "github.com/mont-sinai/chorale/internal/pkg/errors"
)

type SubCategoryRepo struct {
	db *sql.DB
}

func NewSubCategoryRepo(db *sql.DB) *SubCategoryRepo {
	return &SubCategoryRepo{db: db}
}

func (r *SubCategoryRepo) Create(ctx context.Context, sub *model.SubCategory) error {
	data := map[string]interface{}{
		"id":          sub.ID,
		"category_id": sub.CategoryID,
		"name":        sub.Name,
		"ctime":       sub.Ctime,
		"mtime":       sub.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("sub_categories", []map[string]interface{}{data})
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

func (r *SubCategoryRepo) GetByID(ctx context.Context, id string) (*model.SubCategory, error) {
	sqlStr := `
		SELECT s.id, s.category_id, s.name, s.ctime, s.mtime, c.name
		FROM sub_categories s
		JOIN categories c ON c.id = s.category_id
		WHERE s.id = ?
	`
	sqlStr, args := dbutil.Finalize(sqlStr, []interface{}{id})
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var item model.SubCategory
	if err := rows.Scan(&item.ID, &item.CategoryID, &item.Name, &item.Ctime, &item.Mtime, &item.CategoryName); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *SubCategoryRepo) List(ctx context.Context, search, categoryID string, limit, offset uint) ([]model.SubCategory, error) {
	sqlStr := `
		SELECT s.id, s.category_id, s.name, s.ctime, s.mtime, c.name
		FROM sub_categories s
		JOIN categories c ON c.id = s.category_id
		WHERE 1 = 1
	`
	args := []interface{}{}
	if search != "" {
		sqlStr += ` AND s.name ILIKE ?`
		args = append(args, "%"+search+"%")
	}
	if categoryID != "" {
		sqlStr += ` AND s.category_id = ?`
		args = append(args, categoryID)
	}
	sqlStr += ` ORDER BY s.ctime DESC`
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
	items := make([]model.SubCategory, 0)
	for rows.Next() {
		var item model.SubCategory
		if err := rows.Scan(&item.ID, &item.CategoryID, &item.Name, &item.Ctime, &item.Mtime, &item.CategoryName); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *SubCategoryRepo) Count(ctx context.Context, search, categoryID string) (int, error) {
	sqlStr := `SELECT COUNT(*) FROM sub_categories WHERE 1 = 1`
	args := []interface{}{}
	if search != "" {
		sqlStr += ` AND name ILIKE ?`
		args = append(args, "%"+search+"%")
	}
	if categoryID != "" {
		sqlStr += ` AND category_id = ?`
		args = append(args, categoryID)
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SubCategoryRepo) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	sqlStr, args := dbutil.Finalize(`SELECT COUNT(*) FROM sub_categories WHERE category_id = ?`, []interface{}{categoryID})
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SubCategoryRepo) ListSummaries(ctx context.Context, categoryID string) ([]model.SubCategorySummary, error) {
	where := map[string]interface{}{"category_id": categoryID, "_orderby": "name asc"}
	sqlStr, args, err := builder.BuildSelect("sub_categories", where, []string{"id", "name"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.SubCategorySummary, 0)
	for rows.Next() {
		var item model.SubCategorySummary
		if err := rows.Scan(&item.ID, &item.Name); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *SubCategoryRepo) Update(ctx context.Context, id string, name, categoryID *string, mtime int64) error {
	update := map[string]interface{}{"mtime": mtime}
	if name != nil {
		update["name"] = *name
	}
	if categoryID != nil {
		update["category_id"] = *categoryID
	}
	sqlStr, args, err := builder.BuildUpdate("sub_categories", map[string]interface{}{"id": id}, update)
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

func (r *SubCategoryRepo) Delete(ctx context.Context, id string) error {
	sqlStr, args, err := builder.BuildDelete("sub_categories", map[string]interface{}{"id": id})
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
