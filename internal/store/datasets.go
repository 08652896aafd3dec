package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"davisboard/internal/model"
)

// NewDataset 新建数据集参数
type NewDataset struct {
	Name       string
	Widget     model.WidgetType
	SourceFile string
}

// CreateDataset 写入数据集及全部行，返回元信息（version=1）
func (s *Store) CreateDataset(in NewDataset, rows []model.Row) (model.Dataset, error) {
	if !in.Widget.Valid() {
		return model.Dataset{}, fmt.Errorf("unknown widget %q", in.Widget)
	}
	now := time.Now().UTC()
	ds := model.Dataset{
		ID:         uuid.NewString(),
		Name:       in.Name,
		Widget:     in.Widget,
		Version:    1,
		RowCount:   len(rows),
		SourceFile: in.SourceFile,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return model.Dataset{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO datasets (id, name, widget, version, row_count, source_file, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, ds.ID, ds.Name, string(ds.Widget), ds.Version, ds.RowCount, ds.SourceFile, ds.CreatedAt, ds.UpdatedAt)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("failed to insert dataset: %w", err)
	}
	if err := insertRows(tx, ds.ID, rows); err != nil {
		return model.Dataset{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Dataset{}, fmt.Errorf("failed to commit dataset: %w", err)
	}
	return ds, nil
}

// ReplaceRows 替换数据集的全部行并递增版本号
func (s *Store) ReplaceRows(id string, rows []model.Row) (model.Dataset, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return model.Dataset{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE datasets SET version = version + 1, row_count = ?, updated_at = ?
		WHERE id = ?
	`, len(rows), time.Now().UTC(), id)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("failed to update dataset: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Dataset{}, fmt.Errorf("dataset %s: %w", id, ErrNotFound)
	}
	if _, err := tx.Exec("DELETE FROM dataset_rows WHERE dataset_id = ?", id); err != nil {
		return model.Dataset{}, fmt.Errorf("failed to clear rows: %w", err)
	}
	if err := insertRows(tx, id, rows); err != nil {
		return model.Dataset{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Dataset{}, fmt.Errorf("failed to commit rows: %w", err)
	}
	return s.GetDataset(id)
}

func insertRows(tx *sql.Tx, id string, rows []model.Row) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.Prepare("INSERT INTO dataset_rows (dataset_id, row_no, payload) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode row %d: %w", i, err)
		}
		if _, err := stmt.Exec(id, i, string(payload)); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}
	return nil
}

const datasetColumns = "id, name, widget, version, row_count, source_file, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDataset(sc rowScanner) (model.Dataset, error) {
	var ds model.Dataset
	var widget string
	err := sc.Scan(&ds.ID, &ds.Name, &widget, &ds.Version, &ds.RowCount, &ds.SourceFile, &ds.CreatedAt, &ds.UpdatedAt)
	ds.Widget = model.WidgetType(widget)
	return ds, err
}

// GetDataset 按 ID 获取元信息
func (s *Store) GetDataset(id string) (model.Dataset, error) {
	ds, err := scanDataset(s.db.QueryRow("SELECT "+datasetColumns+" FROM datasets WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Dataset{}, fmt.Errorf("dataset %s: %w", id, ErrNotFound)
		}
		return model.Dataset{}, fmt.Errorf("query dataset failed: %w", err)
	}
	return ds, nil
}

// ListDatasets 按更新时间倒序列出数据集
func (s *Store) ListDatasets() ([]model.Dataset, error) {
	rows, err := s.db.Query("SELECT " + datasetColumns + " FROM datasets ORDER BY updated_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("query datasets failed: %w", err)
	}
	defer rows.Close()

	out := []model.Dataset{}
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dataset failed: %w", err)
		}
		out = append(out, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate datasets failed: %w", err)
	}
	return out, nil
}

// LoadRows 按原始顺序读取数据集全部行
func (s *Store) LoadRows(id string) ([]model.Row, error) {
	if _, err := s.GetDataset(id); err != nil {
		return nil, err
	}
	rows, err := s.db.Query("SELECT payload FROM dataset_rows WHERE dataset_id = ? ORDER BY row_no", id)
	if err != nil {
		return nil, fmt.Errorf("query rows failed: %w", err)
	}
	defer rows.Close()

	var out []model.Row
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan row failed: %w", err)
		}
		var r model.Row
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteDataset 删除数据集及其行；若为当前数据集则清除选择
func (s *Store) DeleteDataset(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("DELETE FROM datasets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("dataset %s: %w", id, ErrNotFound)
	}
	if _, err := tx.Exec("DELETE FROM dataset_rows WHERE dataset_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete rows: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM config WHERE key = ? AND value = ?", keyCurrentDataset, id); err != nil {
		return fmt.Errorf("failed to clear current dataset: %w", err)
	}
	return tx.Commit()
}
