package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"davisboard/internal/logging"
	"davisboard/internal/model"
	"davisboard/internal/store"
)

// CreateDatasetRequest 以 JSON 行创建数据集
type CreateDatasetRequest struct {
	Name       string           `json:"name" binding:"required"`
	Widget     model.WidgetType `json:"widget" binding:"required"`
	Rows       []model.Row      `json:"rows"`
	SetCurrent bool             `json:"setCurrent"`
}

// ListDatasets 数据集列表
// GET /api/datasets
func (h *Handler) ListDatasets(c *gin.Context) {
	datasets, err := h.store.ListDatasets()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取数据集失败"})
		return
	}
	if datasets == nil {
		datasets = []model.Dataset{}
	}
	c.JSON(http.StatusOK, gin.H{"datasets": datasets})
}

// CreateDataset 创建数据集
// POST /api/datasets
func (h *Handler) CreateDataset(c *gin.Context) {
	var req CreateDatasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}
	if !req.Widget.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未知组件: " + string(req.Widget)})
		return
	}

	ds, err := h.store.CreateDataset(store.NewDataset{Name: req.Name, Widget: req.Widget}, req.Rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建数据集失败: " + err.Error()})
		return
	}
	if req.SetCurrent {
		if err := h.store.SetCurrentDataset(ds.ID); err != nil {
			logging.Logger().Warn("set current dataset failed", "dataset", ds.ID, "error", err)
		}
	}
	c.JSON(http.StatusCreated, ds)
}

// GetDataset 数据集详情（含行）
// GET /api/datasets/:id
func (h *Handler) GetDataset(c *gin.Context) {
	ds, rows, ok := h.loadDataset(c, "")
	if !ok {
		return
	}
	if rows == nil {
		rows = []model.Row{}
	}
	c.JSON(http.StatusOK, gin.H{"dataset": ds, "rows": rows})
}

// DeleteDataset 删除数据集并丢弃其会话状态
// DELETE /api/datasets/:id
func (h *Handler) DeleteDataset(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.DeleteDataset(id); err != nil {
		writeStoreError(c, err, "删除数据集失败")
		return
	}
	h.sessions.Forget(id)
	h.sessions.ScheduleSave()
	c.JSON(http.StatusOK, gin.H{"message": "已删除"})
}
