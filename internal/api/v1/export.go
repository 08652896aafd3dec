package v1

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"davisboard/internal/exporter"
	"davisboard/internal/model"
	"davisboard/internal/spreads"
)

const (
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportDownloadTTL = 10 * time.Minute
)

type exportProgressEvent struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// exportWorkbook 按组件类型生成工作簿；环比表格使用当前会话状态
func (h *Handler) exportWorkbook(ds model.Dataset, rows []model.Row, opts exporter.ExportOptions) (*excelize.File, error) {
	switch ds.Widget {
	case model.WidgetMarketSpreads:
		return h.exporter.ExportSpreads(spreads.Build(rows, h.settings(ds.Widget)), opts)
	default:
		ranked := h.sessions.Columns(ds, rows)
		view := h.buildView(rows, ranked, h.sessions.State(ds, ranked))
		return h.exporter.ExportTable(view, opts)
	}
}

// Export 导出 Excel
// POST /api/datasets/:id/export
func (h *Handler) Export(c *gin.Context) {
	ds, rows, ok := h.loadDataset(c, "")
	if !ok {
		return
	}

	file, err := h.exportWorkbook(ds, rows, exporter.ExportOptions{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "导出失败: " + err.Error()})
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", buildExportContentDisposition(ds.Name))
	c.Header("Content-Type", xlsxContentType)
	if err := file.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "写入文件失败"})
		return
	}
}

// ExportStream 导出 Excel（SSE 进度 + 完成后提供下载地址）
// POST /api/datasets/:id/export/stream
func (h *Handler) ExportStream(c *gin.Context) {
	ds, rows, ok := h.loadDataset(c, "")
	if !ok {
		return
	}

	stream, ok := newSSEStream(c)
	if !ok {
		return
	}
	send := func(typ, msg string, data any) {
		stream.send(exportProgressEvent{Type: typ, Message: msg, Data: data, Timestamp: time.Now()})
	}

	send("start", "开始导出", map[string]any{"datasetId": ds.ID, "widget": ds.Widget})

	lastPercent := -1
	progressFn := func(p exporter.ProgressEvent) {
		if p.Percent == lastPercent {
			return
		}
		lastPercent = p.Percent
		send("progress", p.Stage, map[string]any{"percent": p.Percent})
	}

	file, err := h.exportWorkbook(ds, rows, exporter.ExportOptions{Progress: progressFn})
	if err != nil {
		send("error", "导出失败: "+err.Error(), map[string]any{})
		return
	}
	defer file.Close()

	dir := h.exportDir
	if dir == "" {
		dir = os.TempDir()
	}
	tempPath := filepath.Join(dir, fmt.Sprintf("davisboard_export_%d_%d.xlsx", time.Now().UnixNano(), os.Getpid()))
	if err := file.SaveAs(tempPath); err != nil {
		send("error", "写入导出文件失败: "+err.Error(), map[string]any{})
		_ = os.Remove(tempPath)
		return
	}

	token := h.downloads.put(tempPath, ds.Name, exportDownloadTTL)
	prefix := "/api"
	if strings.HasPrefix(c.Request.URL.Path, "/api/v1/") {
		prefix = "/api/v1"
	}

	send("done", "导出完成", map[string]any{
		"percent":     100,
		"downloadUrl": fmt.Sprintf("%s/export/download/%s", prefix, token),
	})
}

// DownloadExport 下载导出的 Excel 文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	item, ok := h.downloads.get(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "下载链接已失效"})
		return
	}

	if _, err := os.Stat(item.filePath); err != nil {
		h.downloads.delete(token)
		c.JSON(http.StatusNotFound, gin.H{"error": "导出文件不存在"})
		return
	}

	c.Header("Content-Disposition", buildExportContentDisposition(item.name))
	c.Header("Content-Type", xlsxContentType)
	c.File(item.filePath)

	h.downloads.delete(token)
	_ = os.Remove(item.filePath)
}

// buildExportContentDisposition ASCII 回退文件名 + RFC 5987 编码的原始文件名
func buildExportContentDisposition(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "export"
	}

	fallback := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, name)
	if strings.Trim(fallback, "_ ") == "" {
		fallback = "export"
	}

	return fmt.Sprintf("attachment; filename=\"%s.xlsx\"; filename*=UTF-8''%s", fallback, url.PathEscape(name+".xlsx"))
}
