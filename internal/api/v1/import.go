package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"davisboard/internal/importer"
	"davisboard/internal/model"
)

// Import 导入 Excel / JSON 数据 (SSE 流式响应)
// POST /api/datasets/import
//
// 表单字段：file（必填）、name、widget、datasetId（替换已有数据集）、setCurrent（默认 true）
func (h *Handler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传文件"})
		return
	}

	widget := model.WidgetType(c.PostForm("widget"))
	if widget != "" && !widget.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未知组件: " + string(widget)})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取上传文件失败"})
		return
	}
	defer file.Close()

	stream, ok := newSSEStream(c)
	if !ok {
		return
	}

	progressChan := h.coordinator.Import(importer.ImportOptions{
		Reader:     file,
		Filename:   fileHeader.Filename,
		FileSize:   fileHeader.Size,
		Name:       c.PostForm("name"),
		Widget:     widget,
		DatasetID:  c.PostForm("datasetId"),
		SetCurrent: c.DefaultPostForm("setCurrent", "true") == "true",
	})

	for event := range progressChan {
		stream.send(event)
	}
}
