// Package session 保存每个数据集的表格视图状态，并缓存月份列识别结果
package session

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"davisboard/internal/logging"
	"davisboard/internal/model"
	"davisboard/internal/table"
)

const (
	schemaVersion     = 2
	snapshotFile      = "sessions.json"
	saveDebounceDelay = time.Second
)

type columnsKey struct {
	datasetID string
	version   int
}

// datasetState 绑定数据集版本的视图状态；替换数据后版本变化，状态随之失效
type datasetState struct {
	Version int         `json:"version"`
	State   table.State `json:"state"`
}

type snapshot struct {
	SchemaVersion int                     `json:"schemaVersion"`
	UpdatedAt     time.Time               `json:"updatedAt"`
	States        map[string]datasetState `json:"states"`
}

// Store 内存会话存储：数据集 ID → 视图状态
type Store struct {
	dataDir string

	mu        sync.RWMutex
	states    map[string]datasetState
	columns   map[columnsKey][]table.MonthColumn
	dirty     bool
	saveTimer *time.Timer
}

// NewStore 创建会话存储；dataDir 为空时仅驻留内存
func NewStore(dataDir string) (*Store, error) {
	s := &Store{
		dataDir: dataDir,
		states:  make(map[string]datasetState),
		columns: make(map[columnsKey][]table.MonthColumn),
	}
	if dataDir == "" || !fileExists(s.path()) {
		return s, nil
	}
	var snap snapshot
	if err := readJSON(s.path(), &snap); err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	if snap.SchemaVersion != schemaVersion {
		logging.Logger().Warn("ignore sessions snapshot with old schema", "schemaVersion", snap.SchemaVersion)
		return s, nil
	}
	if snap.States != nil {
		s.states = snap.States
	}
	return s, nil
}

func (s *Store) path() string {
	return filepath.Join(s.dataDir, snapshotFile)
}

// Columns 数据集的已排序月份列，按 (ID, 版本) 缓存
func (s *Store) Columns(ds model.Dataset, rows []model.Row) []table.MonthColumn {
	key := columnsKey{ds.ID, ds.Version}
	s.mu.RLock()
	cols, ok := s.columns[key]
	s.mu.RUnlock()
	if ok {
		return cols
	}

	cols = table.ResolveMonthColumns(rows)
	s.mu.Lock()
	// 旧版本不再需要
	for k := range s.columns {
		if k.datasetID == ds.ID && k.version != ds.Version {
			delete(s.columns, k)
		}
	}
	s.columns[key] = cols
	s.mu.Unlock()
	return cols
}

// State 当前状态；首次访问或数据集版本变化时按默认值初始化
func (s *Store) State(ds model.Dataset, ranked []table.MonthColumn) table.State {
	s.mu.RLock()
	st, ok := s.states[ds.ID]
	s.mu.RUnlock()
	if ok && st.Version == ds.Version {
		return st.State
	}
	return table.NewState(ranked)
}

// Apply 校验并依次应用事件；任一事件非法时不修改状态
func (s *Store) Apply(ds model.Dataset, events []table.Event, ranked []table.MonthColumn) (table.State, error) {
	for i, e := range events {
		if err := e.Validate(); err != nil {
			return table.State{}, fmt.Errorf("event %d: %w", i, err)
		}
	}

	s.mu.Lock()
	st := table.NewState(ranked)
	if prev, ok := s.states[ds.ID]; ok && prev.Version == ds.Version {
		st = prev.State
	}
	st = st.ApplyAll(events, ranked)
	s.states[ds.ID] = datasetState{Version: ds.Version, State: st}
	s.dirty = true
	s.mu.Unlock()

	logging.Logger().Debug("session events applied", "dataset", ds.ID, "version", ds.Version, "events", len(events))
	s.ScheduleSave()
	return st, nil
}

// Forget 删除数据集的状态与缓存
func (s *Store) Forget(datasetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, datasetID)
	for k := range s.columns {
		if k.datasetID == datasetID {
			delete(s.columns, k)
		}
	}
	s.dirty = true
}

// SaveNow 立即写入快照
func (s *Store) SaveNow() error {
	if s.dataDir == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	if !s.dirty && fileExists(s.path()) {
		return nil
	}
	snap := snapshot{
		SchemaVersion: schemaVersion,
		UpdatedAt:     time.Now().UTC(),
		States:        s.states,
	}
	if err := writeJSONAtomic(s.path(), snap); err != nil {
		return fmt.Errorf("save sessions: %w", err)
	}
	s.dirty = false
	return nil
}

// ScheduleSave 防抖保存
func (s *Store) ScheduleSave() {
	if s.dataDir == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(saveDebounceDelay, func() {
		if err := s.SaveNow(); err != nil {
			logging.Logger().Warn("save sessions failed", "error", err)
		}
	})
}
