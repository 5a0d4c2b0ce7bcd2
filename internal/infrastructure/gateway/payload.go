package gateway

import (
	"bytes"
	"encoding/json"
)

// 动作类型
const (
	ActionText   = "text"
	ActionVision = "vision"
)

const jsonMimeType = "application/json"

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

// textPayload 文本任务请求体
type textPayload struct {
	ActionType       string           `json:"action_type"`
	APIKey           string           `json:"api_key"`
	ModelName        string           `json:"model_name"`
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

// visionPayload 视觉任务请求体，字段平铺不嵌套在 contents 中
type visionPayload struct {
	ActionType   string `json:"action_type"`
	APIKey       string `json:"api_key"`
	ModelName    string `json:"model_name"`
	SystemPrompt string `json:"system_prompt"`
	ImageData    string `json:"image_data"`
	MimeType     string `json:"mime_type"`
}

func newTextPayload(apiKey, model, prompt string) textPayload {
	return textPayload{
		ActionType: ActionText,
		APIKey:     apiKey,
		ModelName:  model,
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{ResponseMimeType: jsonMimeType},
	}
}

func newVisionPayload(apiKey, model, prompt, imageBase64, mimeType string) visionPayload {
	return visionPayload{
		ActionType:   ActionVision,
		APIKey:       apiKey,
		ModelName:    model,
		SystemPrompt: prompt,
		ImageData:    imageBase64,
		MimeType:     mimeType,
	}
}

// errorEnvelope 代理或上游的错误信封 {error:{message}}
type errorEnvelope struct {
	Message string `json:"message"`
}

// envelope 上游回复信封
type envelope struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error json.RawMessage `json:"error"`
}

// errorMessage 解析 error 字段，兼容字符串与 {message} 两种形态
func (e *envelope) errorMessage() (string, bool) {
	raw := bytes.TrimSpace(e.Error)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil {
		return msg, true
	}
	var obj errorEnvelope
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Message, true
	}
	return string(raw), true
}

// firstText 返回 candidates[0].content.parts[0].text
func (e *envelope) firstText() (string, bool) {
	if len(e.Candidates) == 0 {
		return "", false
	}
	parts := e.Candidates[0].Content.Parts
	if len(parts) == 0 || parts[0].Text == nil {
		return "", false
	}
	return *parts[0].Text, true
}
