package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/mont-sinai/chorale/internal/model"
	"github.com/mont-sinai/chorale/internal/pkg/dbutil"
	appErr "github.com/mont-sinai/chorale/internal/pkg/errors"
)

type CatalogueRepo struct {
	db *sql.DB
}

func NewCatalogueRepo(db *sql.DB) *CatalogueRepo {
	return &CatalogueRepo{db: db}
}

func (r *CatalogueRepo) Create(ctx context.Context, cat *model.Catalogue) error {
	data := map[string]interface{}{
		"id":          cat.ID,
		"name":        cat.Name,
		"description": cat.Description,
		"ctime":       cat.Ctime,
		"mtime":       cat.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("catalogues", []map[string]interface{}{data})
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

func (r *CatalogueRepo) List(ctx context.Context) ([]model.Catalogue, error) {
	where := map[string]interface{}{"_orderby": "name asc"}
	sqlStr, args, err := builder.BuildSelect("catalogues", where, []string{"id", "name", "description", "ctime", "mtime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.Catalogue, 0)
	for rows.Next() {
		var item model.Catalogue
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Ctime, &item.Mtime); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *CatalogueRepo) GetByID(ctx context.Context, id string) (*model.Catalogue, error) {
	sqlStr, args, err := builder.BuildSelect("catalogues", map[string]interface{}{"id": id}, []string{"id", "name", "description", "ctime", "mtime"})
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
	var item model.Catalogue
	if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Ctime, &item.Mtime); err != nil {
		return nil, err
	}
	return &item, nil
}
