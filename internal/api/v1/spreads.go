package v1

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"davisboard/internal/model"
	"davisboard/internal/spreads"
)

// GetSpreads 价差矩阵
// GET /api/datasets/:id/spreads
func (h *Handler) GetSpreads(c *gin.Context) {
	_, rows, ok := h.loadDataset(c, model.WidgetMarketSpreads)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, spreads.Build(rows, h.settings(model.WidgetMarketSpreads)))
}

// GetHeatmap 价差强度热力图
// GET /api/datasets/:id/spreads/heatmap.png
func (h *Handler) GetHeatmap(c *gin.Context) {
	_, rows, ok := h.loadDataset(c, model.WidgetMarketSpreads)
	if !ok {
		return
	}
	m := spreads.Build(rows, h.settings(model.WidgetMarketSpreads))

	var buf bytes.Buffer
	if err := spreads.RenderHeatmap(&buf, m, spreads.HeatmapSize); err != nil {
		if errors.Is(err, spreads.ErrEmptyMatrix) {
			c.JSON(http.StatusNotFound, gin.H{"error": "没有价差数据"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "绘制失败: " + err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
