package handler

import (
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"

	"seo-ai-api/internal/domain/entity"
	"seo-ai-api/internal/interfaces/http/dto"
)

// ndjsonContentType 逐行 JSON 流
const ndjsonContentType = "application/x-ndjson"

// wantsStream 调用方是否请求流式进度
func wantsStream(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), ndjsonContentType)
}

// ndjsonWriter 每个结果写一行并立即刷新
type ndjsonWriter struct {
	c   *gin.Context
	enc *json.Encoder
}

func newNDJSONWriter(c *gin.Context) *ndjsonWriter {
	c.Header("Content-Type", ndjsonContentType)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(200)
	return &ndjsonWriter{c: c, enc: json.NewEncoder(c.Writer)}
}

// Emit 写出一条结果，客户端断开后丢弃
func (w *ndjsonWriter) Emit(r entity.OperationResult) {
	if w.c.Request.Context().Err() != nil {
		return
	}
	if err := w.enc.Encode(dto.NewResultLine(r)); err != nil {
		return
	}
	w.c.Writer.Flush()
}
