package entity

import "fmt"

// TaskKind 生成任务类型
type TaskKind string

const (
	TaskSEO     TaskKind = "seo"
	TaskContent TaskKind = "content"
	TaskVision  TaskKind = "vision"
)

// AllTaskKinds 全部任务类型，按执行顺序排列
var AllTaskKinds = []TaskKind{TaskSEO, TaskContent, TaskVision}

// ParseTaskKind 解析任务类型
func ParseTaskKind(s string) (TaskKind, error) {
	switch TaskKind(s) {
	case TaskSEO, TaskContent, TaskVision:
		return TaskKind(s), nil
	default:
		return "", fmt.Errorf("unknown task kind %q", s)
	}
}

// Label 任务在日志中的展示名称
func (k TaskKind) Label() string {
	switch k {
	case TaskSEO:
		return "SEO"
	case TaskContent:
		return "Content"
	case TaskVision:
		return "Alt (Vision)"
	default:
		return string(k)
	}
}

// GenerationOptions 单次运行的生成选项
type GenerationOptions struct {
	GenerateSEO     bool `json:"do_seo"`
	GenerateContent bool `json:"do_content"`
	GenerateAltText bool `json:"do_alt"`
	UpdateSlug      bool `json:"do_slug"`
	StrictTitleMode bool `json:"strict_mode"`
}

// Any 是否选择了任一生成任务
func (o GenerationOptions) Any() bool {
	return o.GenerateSEO || o.GenerateContent || o.GenerateAltText
}

// Plan 返回需要执行的子任务，顺序为 SEO -> 内容 -> 视觉
// 视觉 Alt 仅在请求 Alt 但未请求内容时执行，内容任务已返回 Alt 候选
func (o GenerationOptions) Plan() []TaskKind {
	var plan []TaskKind
	if o.GenerateSEO {
		plan = append(plan, TaskSEO)
	}
	if o.GenerateContent {
		plan = append(plan, TaskContent)
	} else if o.GenerateAltText {
		plan = append(plan, TaskVision)
	}
	return plan
}
