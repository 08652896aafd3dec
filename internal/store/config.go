package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"davisboard/internal/model"
)

const keyCurrentDataset = "current_dataset"

// GetConfig 获取配置项，不存在时返回 ErrNotFound
func (s *Store) GetConfig(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("config key %s: %w", key, ErrNotFound)
		}
		return "", err
	}
	return value, nil
}

// GetConfigInt 获取整数配置项
func (s *Store) GetConfigInt(key string) (int, error) {
	value, err := s.GetConfig(key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(value)
}

// SetConfig 设置配置项
func (s *Store) SetConfig(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

// SetConfigInt 设置整数配置项
func (s *Store) SetConfigInt(key string, value int) error {
	return s.SetConfig(key, strconv.Itoa(value))
}

// DeleteConfig 删除配置项
func (s *Store) DeleteConfig(key string) error {
	_, err := s.db.Exec("DELETE FROM config WHERE key = ?", key)
	return err
}

// GetAllConfig 获取所有配置项
func (s *Store) GetAllConfig() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM config")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	config := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		config[key] = value
	}
	return config, rows.Err()
}

// GetCurrentDataset 当前选中的数据集 ID；未选中返回空串
func (s *Store) GetCurrentDataset() (string, error) {
	id, err := s.GetConfig(keyCurrentDataset)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return id, err
}

// SetCurrentDataset 设置当前数据集
func (s *Store) SetCurrentDataset(id string) error {
	return s.SetConfig(keyCurrentDataset, id)
}

func settingsKey(w model.WidgetType, field string) string {
	return "settings." + string(w) + "." + field
}

// GetSettings 组件标题覆盖；未设置的字段为空，由调用方回落默认值
func (s *Store) GetSettings(w model.WidgetType) (model.Settings, error) {
	var out model.Settings
	for field, dst := range map[string]*string{"title": &out.Title, "subtitle": &out.Subtitle} {
		v, err := s.GetConfig(settingsKey(w, field))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return model.Settings{}, err
		}
		*dst = v
	}
	return out, nil
}

// SetSettings 保存组件标题覆盖；空字段删除覆盖
func (s *Store) SetSettings(w model.WidgetType, st model.Settings) error {
	for field, v := range map[string]string{"title": st.Title, "subtitle": st.Subtitle} {
		var err error
		if v == "" {
			err = s.DeleteConfig(settingsKey(w, field))
		} else {
			err = s.SetConfig(settingsKey(w, field), v)
		}
		if err != nil {
			return fmt.Errorf("save %s %s: %w", w, field, err)
		}
	}
	return nil
}
