package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"

	"github.com/mont-sinai/chorale/internal/model"
	"github.com/mont-sinai/chorale/internal/pkg/dbutil"
	appErr "github.com/mont-sinai/chorale/internal/pkg/errors"
)

type PlancheRepo struct {
	db *sql.DB
}

func NewPlancheRepo(db *sql.DB) *PlancheRepo {
	return &PlancheRepo{db: db}
}

func encodeFileList(files []string) string {
	if files == nil {
		files = []string{}
	}
	data, _ := json.Marshal(files)
	return string(data)
}

func decodeFileList(raw string) []string {
	files := []string{}
	_ = json.Unmarshal([]byte(raw), &files)
	return files
}

func (r *PlancheRepo) Create(ctx context.Context, planche *model.Planche) error {
	data := map[string]interface{}{
		"id":              planche.ID,
		"sub_category_id": planche.SubCategoryID,
		"title":           planche.Title,
		"files":           encodeFileList(planche.Files),
		"audio_files":     encodeFileList(planche.AudioFiles),
		"uploaded_by":     planche.UploadedByID,
		"ctime":           planche.Ctime,
		"mtime":           planche.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("planches", []map[string]interface{}{data})
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

const plancheSelect = `
	SELECT p.id, p.sub_category_id, p.title, p.files, p.audio_files, p.uploaded_by, p.ctime, p.mtime,
	       s.name, c.id, c.name, u.id, u.email, u.full_name, u.role
	FROM planches p
	JOIN sub_categories s ON s.id = p.sub_category_id
	JOIN categories c ON c.id = s.category_id
	JOIN users u ON u.id = p.uploaded_by
`

func scanPlanche(rows *sql.Rows) (*model.Planche, error) {
	var item model.Planche
	var files, audioFiles string
	var uploader model.PublicUser
	if err := rows.Scan(
		&item.ID, &item.SubCategoryID, &item.Title, &files, &audioFiles, &item.UploadedByID, &item.Ctime, &item.Mtime,
		&item.SubCategoryName, &item.CategoryID, &item.CategoryName,
		&uploader.ID, &uploader.Email, &uploader.FullName, &uploader.Role,
	); err != nil {
		return nil, err
	}
	item.Files = decodeFileList(files)
	item.AudioFiles = decodeFileList(audioFiles)
	item.UploadedBy = &uploader
	return &item, nil
}

func (r *PlancheRepo) GetByID(ctx context.Context, id string) (*model.Planche, error) {
	sqlStr, args := dbutil.Finalize(plancheSelect+` WHERE p.id = ?`, []interface{}{id})
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	return scanPlanche(rows)
}

type PlancheFilter struct {
	Search        string
	CategoryID    string
	SubCategoryID string
}

func plancheWhere(filter PlancheFilter) (string, []interface{}) {
	sqlStr := ` WHERE 1 = 1`
	args := []interface{}{}
	if filter.Search != "" {
		sqlStr += ` AND p.title ILIKE ?`
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.SubCategoryID != "" {
		sqlStr += ` AND p.sub_category_id = ?`
		args = append(args, filter.SubCategoryID)
	}
	if filter.CategoryID != "" {
		sqlStr += ` AND s.category_id = ?`
		args = append(args, filter.CategoryID)
	}
	return sqlStr, args
}

func (r *PlancheRepo) List(ctx context.Context, filter PlancheFilter, limit, offset uint) ([]model.Planche, error) {
	whereStr, args := plancheWhere(filter)
	sqlStr := plancheSelect + whereStr + ` ORDER BY p.ctime DESC`
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
	items := make([]model.Planche, 0)
	for rows.Next() {
		item, err := scanPlanche(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *PlancheRepo) Count(ctx context.Context, filter PlancheFilter) (int, error) {
	whereStr, args := plancheWhere(filter)
	sqlStr := `
		SELECT COUNT(*)
		FROM planches p
		JOIN sub_categories s ON s.id = p.sub_category_id
	` + whereStr
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PlancheRepo) CountBySubCategory(ctx context.Context, subCategoryID string) (int, error) {
	sqlStr, args := dbutil.Finalize(`SELECT COUNT(*) FROM planches WHERE sub_category_id = ?`, []interface{}{subCategoryID})
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PlancheRepo) ListSummaries(ctx context.Context, subCategoryID string) ([]model.PlancheSummary, error) {
	where := map[string]interface{}{"sub_category_id": subCategoryID, "_orderby": "ctime desc"}
	sqlStr, args, err := builder.BuildSelect("planches", where, []string{"id", "title"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.PlancheSummary, 0)
	for rows.Next() {
		var item model.PlancheSummary
		if err := rows.Scan(&item.ID, &item.Title); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateFiles replaces the stored file lists. Appending is done by the
// service on the loaded planche.
func (r *PlancheRepo) UpdateFiles(ctx context.Context, id string, files, audioFiles []string, mtime int64) error {
	update := map[string]interface{}{
		"files":       encodeFileList(files),
		"audio_files": encodeFileList(audioFiles),
		"mtime":       mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("planches", map[string]interface{}{"id": id}, update)
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

func (r *PlancheRepo) Delete(ctx context.Context, id string) error {
	sqlStr, args, err := builder.BuildDelete("planches", map[string]interface{}{"id": id})
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
