// Package gateway 提供 AI 网关（Cloudflare Worker 代理 Gemini）客户端
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"seo-ai-api/internal/config"
	"seo-ai-api/internal/domain/entity"
	apperrors "seo-ai-api/pkg/errors"
	"seo-ai-api/pkg/logger"
	"seo-ai-api/pkg/metrics"
	"seo-ai-api/pkg/tracer"
)

const (
	defaultTextModel   = "gemini-2.0-flash"
	defaultVisionModel = "gemini-2.5-flash-preview-09-2025"
	defaultProbeModel  = "gemini-2.0-flash"

	defaultTextTimeout   = 60 * time.Second
	defaultVisionTimeout = 90 * time.Second
	defaultProbeTimeout  = 20 * time.Second

	maxResponseBytes = 8 << 20
	maxRawInError    = 2000

	probeExpectedMessage = "Test Successful"
)

// probePrompt 连接测试提示词
const probePrompt = `--- TASK ---
You are a connection test.
Respond ONLY with the following JSON (no markdown):
{ "message": "Test Successful" }`

// ProbeResult 连接测试结果
type ProbeResult struct {
	Message string `json:"message"`
	Model   string `json:"model"`
	Latency string `json:"latency"`
}

// Client AI 网关客户端，单次请求不重试
type Client struct {
	cfg        config.GatewayConfig
	httpClient *http.Client
}

// Option 客户端选项
type Option func(*Client)

// WithHTTPClient 指定 HTTP 客户端
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient 创建网关客户端
func NewClient(cfg config.GatewayConfig, opts ...Option) *Client {
	if cfg.TextModel == "" {
		cfg.TextModel = defaultTextModel
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = defaultVisionModel
	}
	if cfg.ProbeModel == "" {
		cfg.ProbeModel = defaultProbeModel
	}
	if cfg.TextTimeout <= 0 {
		cfg.TextTimeout = defaultTextTimeout
	}
	if cfg.VisionTimeout <= 0 {
		cfg.VisionTimeout = defaultVisionTimeout
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsConfigured 检查地址与密钥，未配置返回 NotConfigured
func (c *Client) IsConfigured() error {
	if strings.TrimSpace(c.cfg.Endpoint) == "" || strings.TrimSpace(c.cfg.APIKey) == "" {
		return apperrors.ErrNotConfigured
	}
	return nil
}

// HealthCheck 就绪检查只校验配置，不产生网关调用
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.IsConfigured()
}

// TextModel 文本任务模型
func (c *Client) TextModel() string { return c.cfg.TextModel }

// VisionModel 视觉任务模型
func (c *Client) VisionModel() string { return c.cfg.VisionModel }

// SendText 发送文本任务
func (c *Client) SendText(ctx context.Context, fullPrompt string) (entity.AIResponse, error) {
	if err := c.IsConfigured(); err != nil {
		return nil, err
	}
	payload := newTextPayload(c.cfg.APIKey, c.cfg.TextModel, fullPrompt)
	return c.call(ctx, c.cfg.Endpoint, ActionText, c.cfg.TextModel, payload, c.cfg.TextTimeout)
}

// SendVision 发送视觉任务，图片为 base64 编码
func (c *Client) SendVision(ctx context.Context, taskPrompt, imageBase64, mimeType string) (entity.AIResponse, error) {
	if err := c.IsConfigured(); err != nil {
		return nil, err
	}
	payload := newVisionPayload(c.cfg.APIKey, c.cfg.VisionModel, taskPrompt, imageBase64, mimeType)
	return c.call(ctx, c.cfg.Endpoint, ActionVision, c.cfg.VisionModel, payload, c.cfg.VisionTimeout)
}

// TestConnection 使用调用方提供的（未保存的）凭据测试连通性
func (c *Client) TestConnection(ctx context.Context, endpoint, apiKey string) (*ProbeResult, error) {
	endpoint = strings.TrimSpace(endpoint)
	apiKey = strings.TrimSpace(apiKey)
	if endpoint == "" || apiKey == "" {
		return nil, apperrors.ErrNotConfigured.WithDetail("endpoint and api key are required")
	}

	start := time.Now()
	payload := newTextPayload(apiKey, c.cfg.ProbeModel, probePrompt)
	resp, err := c.call(ctx, endpoint, "probe", c.cfg.ProbeModel, payload, c.cfg.ProbeTimeout)
	if err != nil {
		return nil, err
	}
	if resp.String("message") != probeExpectedMessage {
		return nil, apperrors.New(apperrors.CodeConnectionTestFailed, "invalid test response")
	}
	return &ProbeResult{
		Message: "connection successful",
		Model:   c.cfg.ProbeModel,
		Latency: time.Since(start).Round(time.Millisecond).String(),
	}, nil
}

// call 发送请求并归一化响应
func (c *Client) call(ctx context.Context, endpoint, action, model string, payload any, timeout time.Duration) (entity.AIResponse, error) {
	ctx, span := tracer.Start(ctx, "gateway."+action,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gateway.action", action),
			attribute.String("gateway.model", model),
		))
	defer span.End()

	start := time.Now()
	resp, err := c.do(ctx, endpoint, payload, timeout)

	status := apperrors.CodeOf(err).Name()
	metrics.GatewayCallTotal.WithLabelValues(action, model, status).Inc()
	metrics.GatewayCallDuration.WithLabelValues(action, model).Observe(time.Since(start).Seconds())

	if err != nil {
		tracer.Fail(span, err)
		logger.Warn(ctx, "gateway call failed",
			"action", action,
			"model", model,
			"api_key", logger.MaskSecret(c.keyFor(payload)),
			"error_code", status,
			"error", err.Error(),
		)
		return nil, err
	}

	logger.Debug(ctx, "gateway call succeeded",
		"action", action,
		"model", model,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

func (c *Client) do(ctx context.Context, endpoint string, payload any, timeout time.Duration) (entity.AIResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "failed to encode gateway payload")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeNetworkError, "Worker Error: "+err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeNetworkError, "Worker Error: "+err.Error())
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeNetworkError, "Worker Error: "+err.Error())
	}

	return parseResponse(raw)
}

// parseResponse 按网关协议解析响应体
func parseResponse(raw []byte) (entity.AIResponse, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, apperrors.ErrInvalidGatewayResponse
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, apperrors.ErrInvalidGatewayResponse.WithError(err)
	}

	if msg, ok := env.errorMessage(); ok {
		if msg == "" {
			msg = "unknown worker error"
		}
		return nil, apperrors.New(apperrors.CodeGatewayInternalError, "Error: "+msg)
	}

	text, ok := env.firstText()
	if !ok {
		return nil, apperrors.New(apperrors.CodeAIProviderError, "AI API Error: unknown error from AI provider")
	}

	var out entity.AIResponse
	if err := json.Unmarshal([]byte(extractJSONObject(text)), &out); err != nil || out == nil {
		raw := truncateRunes(text, maxRawInError)
		return nil, apperrors.New(apperrors.CodeAIResponseParse, fmt.Sprintf("invalid JSON from AI. AI Response: %s", raw)).
			WithDetail(raw)
	}
	return out, nil
}

func (c *Client) keyFor(payload any) string {
	switch p := payload.(type) {
	case textPayload:
		return p.APIKey
	case visionPayload:
		return p.APIKey
	default:
		return ""
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
