package v1

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// sseStream 以 `data: {json}\n\n` 格式推送事件
type sseStream struct {
	c       *gin.Context
	flusher http.Flusher
}

// newSSEStream 设置 SSE 响应头；ResponseWriter 不支持 Flush 时写入 500 并返回 false
func newSSEStream(c *gin.Context) (*sseStream, bool) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return nil, false
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	return &sseStream{c: c, flusher: flusher}, true
}

func (s *sseStream) send(event any) {
	b, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(s.c.Writer, "data: %s\n\n", b)
	s.flusher.Flush()
}
