package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"davisboard/internal/exporter"
	"davisboard/internal/importer"
	"davisboard/internal/model"
	"davisboard/internal/service/session"
	"davisboard/internal/store"
)

// Options 处理器参数
type Options struct {
	QuarterYear int      // 季度汇总字段年份
	MyMills     []string // “My mills” 过滤名单
	ExportDir   string   // 流式导出的临时目录，为空时使用系统临时目录
}

// Handler API 处理器
type Handler struct {
	store       *store.Store
	sessions    *session.Store
	coordinator *importer.Coordinator
	exporter    *exporter.Exporter
	downloads   *exportDownloadStore
	fields      *model.FieldTable
	myMills     []string
	exportDir   string
}

// NewHandler 创建 API 处理器
func NewHandler(store *store.Store, sessions *session.Store, opts Options) *Handler {
	if opts.QuarterYear <= 0 {
		opts.QuarterYear = 2025
	}
	return &Handler{
		store:       store,
		sessions:    sessions,
		coordinator: importer.NewCoordinator(store),
		exporter:    exporter.NewExporter(),
		downloads:   newExportDownloadStore(),
		fields:      model.NewFieldTable(opts.QuarterYear),
		myMills:     opts.MyMills,
		exportDir:   opts.ExportDir,
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 配置管理
	router.GET("/config", h.GetConfig)
	router.PATCH("/config", h.UpdateConfig)

	// 数据集
	router.GET("/datasets", h.ListDatasets)
	router.POST("/datasets", h.CreateDataset)
	router.POST("/datasets/import", h.Import)
	router.GET("/datasets/:id", h.GetDataset)
	router.DELETE("/datasets/:id", h.DeleteDataset)

	// 环比表格
	router.GET("/datasets/:id/months", h.ListMonths)
	router.GET("/datasets/:id/table", h.GetTable)
	router.POST("/datasets/:id/table/events", h.ApplyEvents)

	// 市场价差
	router.GET("/datasets/:id/spreads", h.GetSpreads)
	router.GET("/datasets/:id/spreads/heatmap.png", h.GetHeatmap)

	// 数据导出
	router.POST("/datasets/:id/export", h.Export)
	router.POST("/datasets/:id/export/stream", h.ExportStream)
	router.GET("/export/download/:token", h.DownloadExport)
}

// loadDataset 读取路径参数中的数据集及其行；want 非空时校验组件类型。
// 失败时已写入响应。
func (h *Handler) loadDataset(c *gin.Context, want model.WidgetType) (model.Dataset, []model.Row, bool) {
	ds, err := h.store.GetDataset(c.Param("id"))
	if err != nil {
		writeStoreError(c, err, "获取数据集失败")
		return model.Dataset{}, nil, false
	}
	if want != "" && ds.Widget != want {
		c.JSON(http.StatusBadRequest, gin.H{"error": "数据集类型不匹配: " + string(ds.Widget)})
		return model.Dataset{}, nil, false
	}
	rows, err := h.store.LoadRows(ds.ID)
	if err != nil {
		writeStoreError(c, err, "读取数据失败")
		return model.Dataset{}, nil, false
	}
	return ds, rows, true
}

func writeStoreError(c *gin.Context, err error, msg string) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "数据集不存在"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg + ": " + err.Error()})
}

func (h *Handler) settings(w model.WidgetType) model.Settings {
	st, err := h.store.GetSettings(w)
	if err != nil {
		return model.DefaultSettings(w)
	}
	return st.Merge(model.DefaultSettings(w))
}
