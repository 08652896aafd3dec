package store

import (
	"database/sql"
	"fmt"
	"time"
)

// 导入日志状态
const (
	ImportProcessing = "processing"
	ImportSuccess    = "success"
	ImportFailed     = "failed"
)

// ImportLog 导入记录
type ImportLog struct {
	ID           int64      `json:"id"`
	DatasetID    string     `json:"datasetId"`
	Filename     string     `json:"filename"`
	FileSize     int64      `json:"fileSize"`
	Status       string     `json:"status"`
	TotalRows    int        `json:"totalRows"`
	ImportedRows int        `json:"importedRows"`
	ErrorRows    int        `json:"errorRows"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// CreateImportLog 创建导入日志，返回 import_log_id
func (s *Store) CreateImportLog(filename string, fileSize int64) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO import_logs (filename, file_size, status, created_at)
		VALUES (?, ?, ?, ?)
	`, filename, fileSize, ImportProcessing, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to create import log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get import log id: %w", err)
	}
	return id, nil
}

// FinishImportLog 完成导入日志更新
func (s *Store) FinishImportLog(id int64, datasetID string, totalRows, importedRows, errorRows int, status, errorMessage string) error {
	_, err := s.db.Exec(`
		UPDATE import_logs SET
			dataset_id = ?,
			total_rows = ?,
			imported_rows = ?,
			error_rows = ?,
			status = ?,
			error_message = ?,
			completed_at = ?
		WHERE id = ?
	`, datasetID, totalRows, importedRows, errorRows, status, errorMessage, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

// ListImportLogs 最近的导入记录
func (s *Store) ListImportLogs(limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, dataset_id, filename, file_size, status, total_rows, imported_rows, error_rows,
			error_message, created_at, completed_at
		FROM import_logs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query import logs failed: %w", err)
	}
	defer rows.Close()

	out := []ImportLog{}
	for rows.Next() {
		var it ImportLog
		var completed sql.NullTime
		if err := rows.Scan(&it.ID, &it.DatasetID, &it.Filename, &it.FileSize, &it.Status,
			&it.TotalRows, &it.ImportedRows, &it.ErrorRows, &it.ErrorMessage, &it.CreatedAt, &completed); err != nil {
			return nil, fmt.Errorf("scan import log failed: %w", err)
		}
		if completed.Valid {
			t := completed.Time
			it.CompletedAt = &t
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
