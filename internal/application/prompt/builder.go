// Package prompt 组装发送给 AI 网关的任务提示词
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"seo-ai-api/internal/config"
	"seo-ai-api/internal/domain/entity"
	"seo-ai-api/pkg/utils"
)

//go:embed templates/*.txt
var templatesFS embed.FS

// 标题指令
const (
	StrictTitleInstruction = "Create a STRICTLY DESCRIPTIVE title (no clickbait). Example: 'Photorealistic prompt of a gold coin'."
	CatchyTitleInstruction = "Create a High-CTR, catchy, SEO-optimized title."

	SlugFieldRequested = `"latin_name": "English kebab-case slug for URL (e.g., gold-coin-on-wood)"`
	SlugFieldEmpty     = `"latin_name": ""`
)

const (
	defaultMaxBodyRunes = 4000
	defaultLanguage     = "Persian"
)

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.txt"))

// taskVars 任务模板变量
type taskVars struct {
	Language         string
	TitleInstruction string
	SlugField        string
}

// Builder 提示词构建器，无 I/O 无副作用
type Builder struct {
	maxBodyRunes  int
	language      string
	knowledgeBase string
	customRules   string
}

// NewBuilder 创建提示词构建器
func NewBuilder(promptCfg config.PromptConfig, brain config.BrainConfig) *Builder {
	b := &Builder{
		maxBodyRunes:  promptCfg.MaxBodyRunes,
		language:      strings.TrimSpace(promptCfg.Language),
		knowledgeBase: strings.TrimSpace(brain.KnowledgeBase),
		customRules:   strings.TrimSpace(brain.CustomRules),
	}
	if b.maxBodyRunes <= 0 {
		b.maxBodyRunes = defaultMaxBodyRunes
	}
	if b.language == "" {
		b.language = defaultLanguage
	}
	return b
}

// Build 构建完整提示词
// 文本任务包含条目上下文，视觉任务不含正文（图片由网关单独传输）
func (b *Builder) Build(kind entity.TaskKind, title, body string, opts entity.GenerationOptions) string {
	blocks := []string{b.systemBase()}
	if kind != entity.TaskVision {
		blocks = append(blocks, b.contentBlock(title, body))
	}
	blocks = append(blocks, "--- TASK ---\n"+b.TaskInstructions(kind, opts))
	return strings.Join(blocks, "\n\n")
}

// TaskInstructions 仅返回任务指令部分
func (b *Builder) TaskInstructions(kind entity.TaskKind, opts entity.GenerationOptions) string {
	vars := taskVars{Language: b.language}
	name := ""
	switch kind {
	case entity.TaskSEO:
		name = "seo.txt"
		vars.TitleInstruction = CatchyTitleInstruction
		if opts.StrictTitleMode {
			vars.TitleInstruction = StrictTitleInstruction
		}
		vars.SlugField = SlugFieldEmpty
		if opts.UpdateSlug {
			vars.SlugField = SlugFieldRequested
		}
	case entity.TaskContent:
		name = "content.txt"
	case entity.TaskVision:
		name = "vision.txt"
	default:
		return ""
	}
	return render(name, vars)
}

// systemBase 角色声明 + 可选知识库 + 可选自定义规则
func (b *Builder) systemBase() string {
	lines := []string{
		"Act as an Expert SEO Specialist and Content Creator.",
		fmt.Sprintf("Your responses must be in %s.", b.language),
	}
	if b.knowledgeBase != "" {
		lines = append(lines, "--- KNOWLEDGE BASE (Use this context):\n"+b.knowledgeBase+"\n---")
	}
	if b.customRules != "" {
		lines = append(lines, "--- CUSTOM RULES (Must Follow):\n"+b.customRules+"\n---")
	}
	return strings.Join(lines, "\n")
}

func (b *Builder) contentBlock(title, body string) string {
	clean := utils.TruncateRunes(utils.StripTags(body), b.maxBodyRunes)
	return "--- CONTENT TO ANALYZE ---\nTitle: " + utils.StripTags(title) + "\nBody: " + clean
}

// render 执行内嵌模板
func render(name string, vars taskVars) string {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, vars); err != nil {
		panic(fmt.Sprintf("prompt template %s: %v", name, err))
	}
	return strings.TrimSpace(buf.String())
}
