package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"davisboard/internal/logging"
	"davisboard/internal/model"
	"davisboard/internal/table"
)

// MonthsResponse 可选月份
type MonthsResponse struct {
	Columns       []table.MonthColumn `json:"columns"`
	DefaultMonths []model.Month       `json:"defaultMonths"`
	Selected      []model.Month       `json:"selected"`
	Options       []string            `json:"options"`
	Periods       []model.Period      `json:"periods"`
}

// EventsRequest 视图事件；filters 为宿主透传的过滤条件
type EventsRequest struct {
	Events  []table.Event       `json:"events"`
	Filters []model.FilterValue `json:"filters"`
}

// ListMonths 数据集中识别到的月份列
// GET /api/datasets/:id/months
func (h *Handler) ListMonths(c *gin.Context) {
	ds, rows, ok := h.loadDataset(c, model.WidgetMonthOverMonth)
	if !ok {
		return
	}
	ranked := h.sessions.Columns(ds, rows)
	state := h.sessions.State(ds, ranked)

	options := []string{table.AllMonthsOption}
	for _, m := range table.Months(ranked) {
		options = append(options, m.String())
	}
	resp := MonthsResponse{
		Columns:       ranked,
		DefaultMonths: table.NewState(ranked).Months,
		Selected:      state.EffectiveMonths(ranked),
		Options:       options,
		Periods:       model.Periods(),
	}
	if resp.Columns == nil {
		resp.Columns = []table.MonthColumn{}
	}
	c.JSON(http.StatusOK, resp)
}

// GetTable 当前会话状态下的表格视图
// GET /api/datasets/:id/table
func (h *Handler) GetTable(c *gin.Context) {
	ds, rows, ok := h.loadDataset(c, model.WidgetMonthOverMonth)
	if !ok {
		return
	}
	ranked := h.sessions.Columns(ds, rows)
	c.JSON(http.StatusOK, h.buildView(rows, ranked, h.sessions.State(ds, ranked)))
}

// ApplyEvents 应用视图事件并返回新视图
// POST /api/datasets/:id/table/events
func (h *Handler) ApplyEvents(c *gin.Context) {
	var req EventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}
	for _, f := range req.Filters {
		if err := f.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	ds, rows, ok := h.loadDataset(c, model.WidgetMonthOverMonth)
	if !ok {
		return
	}
	if len(req.Filters) > 0 {
		// 过滤条件由宿主执行，这里只记录
		logging.Logger().Info("filters received", "dataset", ds.ID, "count", len(req.Filters))
	}

	ranked := h.sessions.Columns(ds, rows)
	state, err := h.sessions.Apply(ds, req.Events, ranked)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.buildView(rows, ranked, state))
}

func (h *Handler) buildView(rows []model.Row, ranked []table.MonthColumn, state table.State) table.View {
	return table.BuildView(rows, state, table.BuildOptions{
		Settings: h.settings(model.WidgetMonthOverMonth),
		Fields:   h.fields,
		MyMills:  h.myMills,
		Ranked:   ranked,
	})
}
