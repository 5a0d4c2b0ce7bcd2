// Package utils 提供通用工具函数
package utils

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	stripPolicy = bluemonday.StrictPolicy()
	// blockBreaker 块级标签后补空白，避免相邻段落粘连
	blockBreaker = strings.NewReplacer("<br", " <br", "</p>", "</p> ", "</div>", "</div> ", "</li>", "</li> ", "</h", " </h")
)

// StripTags 去除全部 HTML 标签并折叠空白
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	plain := html.UnescapeString(stripPolicy.Sanitize(blockBreaker.Replace(s)))
	return strings.Join(strings.Fields(plain), " ")
}

// SanitizeText 单行文本清洗：去标签、去换行、折叠空白
func SanitizeText(s string) string {
	return StripTags(s)
}

// TruncateRunes 按字符数截断
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i]
		}
		n++
	}
	return s
}

// tagSeparators 标签分隔符（含波斯语逗号）
var tagSeparators = func(r rune) bool {
	return r == ',' || r == '،' || r == '\n'
}

// SplitTags 拆分分隔字符串为标签列表（未规范化）
func SplitTags(s string) []string {
	return strings.FieldsFunc(s, tagSeparators)
}

// NormalizeTags 清洗、去空、保序去重
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = SanitizeText(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Slugify 生成 URL 安全的别名：去音调、小写、非字母数字转连字符
func Slugify(s string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
