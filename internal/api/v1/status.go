package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Initialized    bool   `json:"initialized"`    // 是否已有数据集
	DatasetCount   int    `json:"datasetCount"`   // 数据集数量
	CurrentDataset string `json:"currentDataset"` // 当前数据集 ID
	LastImportTime string `json:"lastImportTime"` // 最后导入时间
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	datasets, err := h.store.ListDatasets()
	if err != nil {
		c.JSON(http.StatusOK, StatusResponse{Initialized: false})
		return
	}
	current, _ := h.store.GetCurrentDataset()

	resp := StatusResponse{
		Initialized:    len(datasets) > 0,
		DatasetCount:   len(datasets),
		CurrentDataset: current,
	}
	if logs, err := h.store.ListImportLogs(1); err == nil && len(logs) > 0 {
		resp.LastImportTime = logs[0].CreatedAt.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}
