package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seo-ai-api/internal/config"
	apperrors "seo-ai-api/pkg/errors"
)

// fakeWorker 记录请求并按给定内容回复的代理
type fakeWorker struct {
	*httptest.Server
	calls   atomic.Int64
	lastReq atomic.Value // map[string]any
}

func newFakeWorker(t *testing.T, status int, body string) *fakeWorker {
	t.Helper()
	w := &fakeWorker{}
	w.Server = httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		w.calls.Add(1)
		raw, _ := io.ReadAll(r.Body)
		var m map[string]any
		_ = json.Unmarshal(raw, &m)
		w.lastReq.Store(m)
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(status)
		_, _ = rw.Write([]byte(body))
	}))
	t.Cleanup(w.Close)
	return w
}

func (w *fakeWorker) request() map[string]any {
	m, _ := w.lastReq.Load().(map[string]any)
	return m
}

// candidateBody 构造上游成功信封，inner 为模型返回的文本
func candidateBody(t *testing.T, inner string) string {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": inner}}}},
		},
	})
	require.NoError(t, err)
	return string(b)
}

func newTestClient(endpoint, key string) *Client {
	return NewClient(config.GatewayConfig{Endpoint: endpoint, APIKey: key, TextModel: "text-model"})
}

func TestSendVision_NotConfiguredMakesNoCall(t *testing.T) {
	w := newFakeWorker(t, http.StatusOK, candidateBody(t, `{"alt_text":"x"}`))
	c := newTestClient(w.URL, "")

	_, err := c.SendVision(context.Background(), "prompt", "aGVsbG8=", "image/png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotConfigured))
	assert.Equal(t, int64(0), w.calls.Load())
}

func TestSendText_NotConfiguredWithoutEndpoint(t *testing.T) {
	c := newTestClient("", "key")
	_, err := c.SendText(context.Background(), "prompt")
	assert.Equal(t, apperrors.CodeNotConfigured, apperrors.CodeOf(err))
}

func TestSendText_PayloadShapeAndSuccess(t *testing.T) {
	w := newFakeWorker(t, http.StatusOK, candidateBody(t, `{"title":"T","tags":["a","b"]}`))
	c := newTestClient(w.URL, "secret")

	resp, err := c.SendText(context.Background(), "full prompt")
	require.NoError(t, err)
	assert.Equal(t, "T", resp.String("title"))
	assert.Equal(t, []string{"a", "b"}, resp.Strings("tags"))

	req := w.request()
	assert.Equal(t, "text", req["action_type"])
	assert.Equal(t, "secret", req["api_key"])
	assert.Equal(t, "text-model", req["model_name"])
	contents := req["contents"].([]any)
	require.Len(t, contents, 1)
	turn := contents[0].(map[string]any)
	assert.Equal(t, "user", turn["role"])
	parts := turn["parts"].([]any)
	assert.Equal(t, "full prompt", parts[0].(map[string]any)["text"])
	assert.Equal(t, "application/json", req["generationConfig"].(map[string]any)["responseMimeType"])
}

func TestSendVision_FlatPayloadAndDefaultModel(t *testing.T) {
	w := newFakeWorker(t, http.StatusOK, candidateBody(t, `{"art_style":"Macro","visual_tags":["coin"],"alt_text":"a coin"}`))
	c := NewClient(config.GatewayConfig{Endpoint: w.URL, APIKey: "k"})

	resp, err := c.SendVision(context.Background(), "vision prompt", "aGVsbG8=", "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "a coin", resp.Vision().AltText)

	req := w.request()
	assert.Equal(t, "vision", req["action_type"])
	assert.Equal(t, "gemini-2.5-flash-preview-09-2025", req["model_name"])
	assert.Equal(t, "vision prompt", req["system_prompt"])
	assert.Equal(t, "aGVsbG8=", req["image_data"])
	assert.Equal(t, "image/jpeg", req["mime_type"])
	assert.NotContains(t, req, "contents")
}

func TestSendText_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode apperrors.ErrorCode
		wantMsg  string
	}{
		{"empty body", http.StatusOK, "", apperrors.CodeInvalidGatewayResponse, ""},
		{"null body", http.StatusOK, "null", apperrors.CodeInvalidGatewayResponse, ""},
		{"html body", http.StatusBadGateway, "<html>bad gateway</html>", apperrors.CodeInvalidGatewayResponse, ""},
		{"proxy error envelope", http.StatusInternalServerError, `{"error":{"message":"quota exceeded"}}`, apperrors.CodeGatewayInternalError, "quota exceeded"},
		{"string error", http.StatusInternalServerError, `{"error":"Invalid API key"}`, apperrors.CodeGatewayInternalError, "Invalid API key"},
		{"empty error object", http.StatusOK, `{"error":{}}`, apperrors.CodeGatewayInternalError, "unknown worker error"},
		{"missing candidates", http.StatusOK, `{"promptFeedback":{"blockReason":"SAFETY"}}`, apperrors.CodeAIProviderError, "AI API Error"},
		{"empty candidates", http.StatusOK, `{"candidates":[]}`, apperrors.CodeAIProviderError, "AI API Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newFakeWorker(t, tt.status, tt.body)
			_, err := newTestClient(w.URL, "k").SendText(context.Background(), "p")
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestSendText_MalformedInnerJSONIncludesRawText(t *testing.T) {
	w := newFakeWorker(t, http.StatusOK, candidateBody(t, `title: not json`))
	_, err := newTestClient(w.URL, "k").SendText(context.Background(), "p")

	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeAIResponseParse, appErr.Code)
	assert.Contains(t, appErr.Message, "title: not json")
	assert.Equal(t, "title: not json", appErr.Detail)
}

func TestSendText_FencedInnerJSON(t *testing.T) {
	w := newFakeWorker(t, http.StatusOK, candidateBody(t, "```json\n{\"content_body\":\"<p>x</p>\",\"image_alt\":\"alt\"}\n```"))
	resp, err := newTestClient(w.URL, "k").SendText(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "alt", resp.Content().ImageAlt)
}

func TestSendText_NetworkError(t *testing.T) {
	w := newFakeWorker(t, http.StatusOK, "{}")
	url := w.URL
	w.Close()

	_, err := newTestClient(url, "k").SendText(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNetworkError, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "Worker Error")
}

func TestSendText_TimeoutIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c := NewClient(config.GatewayConfig{Endpoint: srv.URL, APIKey: "k", TextTimeout: 50 * time.Millisecond})
	_, err := c.SendText(context.Background(), "p")
	assert.Equal(t, apperrors.CodeNetworkError, apperrors.CodeOf(err))
}

func TestTestConnection(t *testing.T) {
	t.Run("success uses unsaved credentials", func(t *testing.T) {
		w := newFakeWorker(t, http.StatusOK, candidateBody(t, `{"message":"Test Successful"}`))
		c := newTestClient("", "")

		res, err := c.TestConnection(context.Background(), w.URL, "unsaved-key")
		require.NoError(t, err)
		assert.Equal(t, "gemini-2.0-flash", res.Model)

		req := w.request()
		assert.Equal(t, "unsaved-key", req["api_key"])
		assert.Equal(t, "gemini-2.0-flash", req["model_name"])
		text := req["contents"].([]any)[0].(map[string]any)["parts"].([]any)[0].(map[string]any)["text"].(string)
		assert.Contains(t, text, "You are a connection test.")
	})

	t.Run("unexpected message", func(t *testing.T) {
		w := newFakeWorker(t, http.StatusOK, candidateBody(t, `{"message":"hello"}`))
		_, err := newTestClient("", "").TestConnection(context.Background(), w.URL, "k")
		assert.Equal(t, apperrors.CodeConnectionTestFailed, apperrors.CodeOf(err))
	})

	t.Run("missing credentials", func(t *testing.T) {
		_, err := newTestClient("", "").TestConnection(context.Background(), " ", "k")
		assert.Equal(t, apperrors.CodeNotConfigured, apperrors.CodeOf(err))
	})
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSONObject("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, extractJSONObject(`Here you go: {"a":1} thanks`))
	assert.Equal(t, "not json", extractJSONObject("not json"))
}
