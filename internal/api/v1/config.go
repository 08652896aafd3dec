package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"davisboard/internal/model"
)

// ConfigResponse 配置响应
type ConfigResponse struct {
	QuarterYear    int                                 `json:"quarterYear"`
	MyMills        []string                            `json:"myMills"`
	CurrentDataset string                              `json:"currentDataset"`
	Settings       map[model.WidgetType]model.Settings `json:"settings"`
}

// UpdateConfigRequest 更新配置请求；未提供的字段保持不变
type UpdateConfigRequest struct {
	Widget         model.WidgetType `json:"widget"`
	Title          *string          `json:"title"`
	Subtitle       *string          `json:"subtitle"`
	CurrentDataset *string          `json:"currentDataset"`
}

// GetConfig 获取配置
// GET /api/config
func (h *Handler) GetConfig(c *gin.Context) {
	current, err := h.store.GetCurrentDataset()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取配置失败"})
		return
	}
	mills := h.myMills
	if mills == nil {
		mills = []string{}
	}
	c.JSON(http.StatusOK, ConfigResponse{
		QuarterYear:    h.fields.QuarterYear(),
		MyMills:        mills,
		CurrentDataset: current,
		Settings: map[model.WidgetType]model.Settings{
			model.WidgetMonthOverMonth: h.settings(model.WidgetMonthOverMonth),
			model.WidgetMarketSpreads:  h.settings(model.WidgetMarketSpreads),
		},
	})
}

// UpdateConfig 更新组件标题或当前数据集
// PATCH /api/config
func (h *Handler) UpdateConfig(c *gin.Context) {
	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误"})
		return
	}

	if req.Title != nil || req.Subtitle != nil {
		if !req.Widget.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "未知组件: " + string(req.Widget)})
			return
		}
		st, err := h.store.GetSettings(req.Widget)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "获取配置失败"})
			return
		}
		if req.Title != nil {
			st.Title = *req.Title
		}
		if req.Subtitle != nil {
			st.Subtitle = *req.Subtitle
		}
		if err := h.store.SetSettings(req.Widget, st); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "更新配置失败"})
			return
		}
	}

	if req.CurrentDataset != nil {
		if *req.CurrentDataset != "" {
			if _, err := h.store.GetDataset(*req.CurrentDataset); err != nil {
				writeStoreError(c, err, "获取数据集失败")
				return
			}
		}
		if err := h.store.SetCurrentDataset(*req.CurrentDataset); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "更新配置失败"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "配置更新成功"})
}
