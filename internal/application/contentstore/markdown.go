package contentstore

import (
	"bytes"
	"regexp"

	"github.com/yuin/goldmark"
)

var htmlTagRe = regexp.MustCompile(`<[a-zA-Z][^>]*>`)

// markdownToHTML 模型偶尔返回 Markdown 正文，不含任何标签时按 Markdown 渲染
func markdownToHTML(body string) string {
	if htmlTagRe.MatchString(body) {
		return body
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(body), &buf); err != nil {
		return body
	}
	return buf.String()
}
