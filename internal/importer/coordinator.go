package importer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"davisboard/internal/logging"
	"davisboard/internal/model"
	"davisboard/internal/store"
)

// 进度事件类型
const (
	EventStart      = "start"
	EventInfo       = "info"
	EventWarning    = "warning"
	EventSheetStart = "sheet_start"
	EventSheetDone  = "sheet_done"
	EventDone       = "done"
	EventError      = "error"
)

// Coordinator 导入协调器
type Coordinator struct {
	store *store.Store
}

// NewCoordinator 创建导入协调器
func NewCoordinator(store *store.Store) *Coordinator {
	return &Coordinator{store: store}
}

// ImportOptions 导入选项；FilePath 与 Reader 二选一
type ImportOptions struct {
	FilePath   string
	Reader     io.Reader
	Filename   string           // Reader 模式下用于判断格式与记录来源
	FileSize   int64            // 仅用于导入日志
	Name       string           // 数据集名称，默认取文件名
	Widget     model.WidgetType // 为空时按表头识别
	DatasetID  string           // 非空时替换该数据集的行
	SetCurrent bool             // 导入成功后设为当前数据集
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string    `json:"type"`    // start/info/warning/sheet_start/sheet_done/done/error
	Message   string    `json:"message"` // 事件消息
	Data      any       `json:"data"`    // 附加数据
	Timestamp time.Time `json:"timestamp"`
}

func newEvent(typ, msg string, data any) ProgressEvent {
	return ProgressEvent{Type: typ, Message: msg, Data: data, Timestamp: time.Now()}
}

// Import 执行导入，返回进度通道；通道在导入结束后关闭
func (c *Coordinator) Import(opts ImportOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		c.doImport(opts, progressChan)
	}()

	return progressChan
}

func (c *Coordinator) doImport(opts ImportOptions, progressChan chan ProgressEvent) {
	emit := func(e ProgressEvent) { sendProgress(progressChan, e) }

	filename := opts.Filename
	if filename == "" {
		filename = filepath.Base(opts.FilePath)
	}
	emit(newEvent(EventStart, "开始导入文件", map[string]string{"filename": filename}))

	fail := func(logID int64, err error) {
		logging.Logger().Error("import failed", "file", filename, "error", err)
		if logID > 0 {
			if ferr := c.store.FinishImportLog(logID, opts.DatasetID, 0, 0, 0, store.ImportFailed, err.Error()); ferr != nil {
				logging.Logger().Warn("update import log failed", "error", ferr)
			}
		}
		emit(newEvent(EventError, err.Error(), nil))
	}

	r := opts.Reader
	if r == nil {
		f, err := os.Open(opts.FilePath)
		if err != nil {
			fail(0, fmt.Errorf("打开文件失败: %w", err))
			return
		}
		defer f.Close()
		r = f
		if st, err := f.Stat(); err == nil && opts.FileSize == 0 {
			opts.FileSize = st.Size()
		}
	}

	logID, err := c.store.CreateImportLog(filename, opts.FileSize)
	if err != nil {
		fail(0, err)
		return
	}

	loaded, err := load(r, filename, opts.Widget, emit)
	if err != nil {
		fail(logID, err)
		return
	}

	ds, err := c.save(opts, filename, loaded)
	if err != nil {
		loaded.Report.ErrorRows = len(loaded.Rows)
		fail(logID, err)
		return
	}
	loaded.Report.DatasetID = ds.ID

	if err := c.store.FinishImportLog(logID, ds.ID, loaded.Report.TotalRows, loaded.Report.ImportedRows,
		loaded.Report.ErrorRows, store.ImportSuccess, ""); err != nil {
		emit(newEvent(EventWarning, fmt.Sprintf("更新导入日志失败: %v", err), nil))
	}

	if opts.SetCurrent {
		if err := c.store.SetCurrentDataset(ds.ID); err != nil {
			emit(newEvent(EventWarning, fmt.Sprintf("更新当前数据集失败: %v", err), nil))
		} else {
			emit(newEvent(EventInfo, fmt.Sprintf("当前数据集已更新为: %s", ds.Name), map[string]string{"dataset_id": ds.ID}))
		}
	}

	logging.Logger().Info("import done", "file", filename, "dataset", ds.ID, "rows", len(loaded.Rows))
	emit(newEvent(EventDone, "导入完成", loaded.Report))
}

func (c *Coordinator) save(opts ImportOptions, filename string, loaded Loaded) (model.Dataset, error) {
	if opts.DatasetID != "" {
		existing, err := c.store.GetDataset(opts.DatasetID)
		if err != nil {
			return model.Dataset{}, err
		}
		if existing.Widget != loaded.Widget {
			return model.Dataset{}, fmt.Errorf("dataset %s is %s, file contains %s", existing.ID, existing.Widget, loaded.Widget)
		}
		return c.store.ReplaceRows(opts.DatasetID, loaded.Rows)
	}

	name := opts.Name
	if name == "" {
		name = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	if name == "" {
		return model.Dataset{}, errors.New("dataset name is required")
	}
	return c.store.CreateDataset(store.NewDataset{
		Name:       name,
		Widget:     loaded.Widget,
		SourceFile: filename,
	}, loaded.Rows)
}

// sendProgress 发送进度事件；通道已满时丢弃
func sendProgress(ch chan ProgressEvent, event ProgressEvent) {
	select {
	case ch <- event:
	default:
	}
}
