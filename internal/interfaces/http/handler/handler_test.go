package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seo-ai-api/internal/application/bulk"
	"seo-ai-api/internal/application/contentstore"
	"seo-ai-api/internal/config"
	"seo-ai-api/internal/domain/entity"
	"seo-ai-api/internal/infrastructure/gateway"
	"seo-ai-api/internal/infrastructure/persistence/memory"
	apperrors "seo-ai-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeGenerator 返回固定字段并记录调用
type fakeGenerator struct {
	mu    sync.Mutex
	resp  entity.AIResponse
	err   error
	kinds []entity.TaskKind
	opts  []entity.GenerationOptions
}

func (g *fakeGenerator) Generate(ctx context.Context, kind entity.TaskKind, itemID int64, opts entity.GenerationOptions) (entity.AIResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.kinds = append(g.kinds, kind)
	g.opts = append(g.opts, opts)
	return g.resp, g.err
}

// stubTasks 条目 2 网关失败，其余成功
type stubTasks struct{}

func (stubTasks) RunTask(ctx context.Context, kind entity.TaskKind, itemID int64, opts entity.GenerationOptions) entity.OperationResult {
	if itemID == 2 {
		return entity.NewFailureResult(itemID, kind, entity.StageGatewayFailed, apperrors.CodeNetworkError.Name(), "Worker Error: refused")
	}
	return entity.NewSuccessResult(itemID, kind)
}

type nopPublisher struct{}

func (nopPublisher) PublishBulkJob(ctx context.Context, job *entity.BulkJob) error { return nil }

// fakeProber 连接测试桩
type fakeProber struct {
	err      error
	endpoint string
	apiKey   string
}

func (p *fakeProber) TestConnection(ctx context.Context, endpoint, apiKey string) (*gateway.ProbeResult, error) {
	p.endpoint, p.apiKey = endpoint, apiKey
	if p.err != nil {
		return nil, p.err
	}
	return &gateway.ProbeResult{Message: "connection successful", Model: "gemini-2.0-flash"}, nil
}

type testServer struct {
	engine *gin.Engine
	items  *memory.ItemRepository
	gen    *fakeGenerator
	prober *fakeProber
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	items := memory.NewItemRepository()
	store := contentstore.NewAdapter(items, config.StoreConfig{
		SEOSchemas: []string{contentstore.SchemaRankMath},
	})
	runner := bulk.NewRunner(stubTasks{}, config.BulkConfig{MaxItems: 50})
	jobs := bulk.NewJobService(runner, memory.NewJobRepository(), nopPublisher{})

	s := &testServer{
		engine: gin.New(),
		items:  items,
		gen:    &fakeGenerator{resp: entity.AIResponse{"title": "Gold Coin", "tags": []any{"gold"}}},
		prober: &fakeProber{},
	}

	itemH := NewItemHandler(s.gen, store, items)
	bulkH := NewBulkHandler(runner)
	jobH := NewJobHandler(jobs)
	gwH := NewGatewayHandler(s.prober)

	v1 := s.engine.Group("/v1")
	v1.GET("/items", itemH.ListItems)
	v1.POST("/items/:id/seo", itemH.GenerateSEO)
	v1.POST("/items/:id/vision", itemH.GenerateVision)
	v1.PUT("/items/:id/fields", itemH.SaveFields)
	v1.POST("/bulk", bulkH.RunBulk)
	v1.POST("/bulk/jobs", jobH.SubmitJob)
	v1.GET("/bulk/jobs", jobH.ListJobs)
	v1.GET("/bulk/jobs/:jid", jobH.GetJob)
	v1.DELETE("/bulk/jobs/:jid", jobH.CancelJob)
	v1.POST("/gateway/test", gwH.TestConnection)
	return s
}

func (s *testServer) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) seed(t *testing.T, item *entity.Item) int64 {
	t.Helper()
	require.NoError(t, s.items.Create(context.Background(), item))
	return item.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, w)
	detail, ok := body["error"].(map[string]any)
	require.True(t, ok, w.Body.String())
	return detail["error_code"].(string)
}

func TestGenerateSEO_ReturnsFieldsWithoutBody(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/v1/items/7/seo", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, float64(7), data["item_id"])
	assert.Equal(t, "seo", data["task"])
	assert.Equal(t, "Gold Coin", data["fields"].(map[string]any)["title"])
	assert.Equal(t, []entity.TaskKind{entity.TaskSEO}, s.gen.kinds)
	assert.Equal(t, entity.GenerationOptions{}, s.gen.opts[0])
}

func TestGenerate_ForwardsOptions(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/v1/items/7/seo", `{"do_slug":true,"strict_mode":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, s.gen.opts[0].UpdateSlug)
	assert.True(t, s.gen.opts[0].StrictTitleMode)
}

func TestGenerate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid id", "/v1/items/abc/seo", nil, http.StatusBadRequest, "INVALID_PARAM"},
		{"item not found", "/v1/items/9/seo", apperrors.ErrItemNotFound, http.StatusNotFound, "ITEM_NOT_FOUND"},
		{"no image", "/v1/items/9/vision", apperrors.ErrNoImage, http.StatusNotFound, "NO_IMAGE"},
		{"not configured", "/v1/items/9/seo", apperrors.ErrNotConfigured, http.StatusServiceUnavailable, "NOT_CONFIGURED"},
		{"network", "/v1/items/9/seo", apperrors.Wrap(errors.New("refused"), apperrors.CodeNetworkError, "Worker Error: refused"), http.StatusBadGateway, "NETWORK_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.gen.err = tt.err

			w := s.do(http.MethodPost, tt.path, "")
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}
}

func TestSaveFields_TagsAsStringOrArray(t *testing.T) {
	s := newTestServer(t)
	first := s.seed(t, &entity.Item{Type: "post", Title: "A"})
	second := s.seed(t, &entity.Item{Type: "post", Title: "B"})

	w := s.do(http.MethodPut, "/v1/items/"+itoa(first)+"/fields", `{"tags":"a, b ,b,"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(http.MethodPut, "/v1/items/"+itoa(second)+"/fields", `{"tags":["a","b","b"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, id := range []int64{first, second} {
		item, err := s.items.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, item.Tags)
	}
}

func TestSaveFields_KeywordOnly(t *testing.T) {
	s := newTestServer(t)
	id := s.seed(t, &entity.Item{Type: "post", Title: "Original", Meta: map[string]string{
		entity.MetaRankMathTitle: "kept",
	}})

	w := s.do(http.MethodPut, "/v1/items/"+itoa(id)+"/fields", `{"keyword":"gold"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	item, err := s.items.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "gold", item.MetaValue(entity.MetaRankMathKeyword))
	assert.Equal(t, "kept", item.MetaValue(entity.MetaRankMathTitle))
	assert.Equal(t, "Original", item.Title)
}

func TestSaveFields_UnknownItemAndBadBody(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPut, "/v1/items/404/fields", `{"keyword":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ITEM_NOT_FOUND", errorCode(t, w))

	w = s.do(http.MethodPut, "/v1/items/1/fields", `{"tags":42}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListItems_IncludesSEOStatus(t *testing.T) {
	s := newTestServer(t)
	done := s.seed(t, &entity.Item{Type: "post", Title: "done", Meta: map[string]string{entity.MetaRankMathKeyword: "kw"}})
	pending := s.seed(t, &entity.Item{Type: "post", Title: "pending"})
	s.seed(t, &entity.Item{Type: "page", Title: "other"})

	w := s.do(http.MethodGet, "/v1/items?type=post", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, float64(2), body["meta"].(map[string]any)["total"])
	statuses := map[float64]string{}
	for _, raw := range body["data"].(map[string]any)["items"].([]any) {
		it := raw.(map[string]any)
		statuses[it["id"].(float64)] = it["seo_status"].(string)
	}
	assert.Equal(t, "done", statuses[float64(done)])
	assert.Equal(t, "pending", statuses[float64(pending)])
}

func TestRunBulk_JSONSummary(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/v1/bulk", `{"item_ids":[1,2,3],"do_seo":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, float64(3), data["total"])
	assert.Equal(t, float64(1), data["failed"])
	results := data["results"].([]any)
	require.Len(t, results, 4)
	assert.Equal(t, "✗ [#2] SEO Error (Worker Error: refused)", results[1].(map[string]any)["log"])
	assert.Equal(t, ">>> Completed (3 results, 1 failed)", results[3].(map[string]any)["log"])
}

func TestRunBulk_NDJSONStream(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/v1/bulk", `{"item_ids":[1,2],"do_seo":true}`, "Accept", "application/x-ndjson")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/x-ndjson", w.Header().Get("Content-Type"))

	var lines []dtoLine
	sc := bufio.NewScanner(bytes.NewReader(w.Body.Bytes()))
	for sc.Scan() {
		var l dtoLine
		require.NoError(t, json.Unmarshal(sc.Bytes(), &l))
		lines = append(lines, l)
	}
	require.Len(t, lines, 3)
	assert.Equal(t, "✓ [#1] SEO OK", lines[0].Log)
	assert.Equal(t, "failure", lines[1].Status)
	assert.Equal(t, "done", lines[2].Status)
}

// dtoLine NDJSON 行中测试关心的字段
type dtoLine struct {
	ItemID int64  `json:"item_id"`
	Status string `json:"status"`
	Log    string `json:"log"`
}

func TestRunBulk_Rejections(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/v1/bulk", `{"item_ids":[1]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "NOTHING_SELECTED", errorCode(t, w))

	w = s.do(http.MethodPost, "/v1/bulk", `{"item_ids":[],"do_seo":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/v1/bulk", `{"item_ids":[1,-2],"do_seo":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PARAM", errorCode(t, w))
}

func TestJobs_SubmitGetCancel(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/v1/bulk/jobs", `{"item_ids":[1,2],"do_seo":true}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	job := decode(t, w)["data"].(map[string]any)
	id := job["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "pending", job["status"])

	w = s.do(http.MethodGet, "/v1/bulk/jobs/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{float64(1), float64(2)}, decode(t, w)["data"].(map[string]any)["item_ids"])

	w = s.do(http.MethodGet, "/v1/bulk/jobs?status=pending", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"].(map[string]any)["jobs"], 1)

	w = s.do(http.MethodDelete, "/v1/bulk/jobs/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", decode(t, w)["data"].(map[string]any)["status"])

	w = s.do(http.MethodGet, "/v1/bulk/jobs/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "JOB_NOT_FOUND", errorCode(t, w))
}

func TestGatewayTest(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/v1/gateway/test", `{"endpoint":"https://worker.example","api_key":"unsaved"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "unsaved", s.prober.apiKey)
	assert.Equal(t, "connection successful", decode(t, w)["data"].(map[string]any)["message"])

	w = s.do(http.MethodPost, "/v1/gateway/test", `{"endpoint":"https://worker.example"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.prober.err = apperrors.New(apperrors.CodeConnectionTestFailed, "invalid test response")
	w = s.do(http.MethodPost, "/v1/gateway/test", `{"endpoint":"https://worker.example","api_key":"k"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "CONNECTION_TEST_FAILED", errorCode(t, w))
}

type checkFunc func(ctx context.Context) error

func (f checkFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func TestHealth_Ready(t *testing.T) {
	ok := checkFunc(func(context.Context) error { return nil })
	down := checkFunc(func(context.Context) error { return errors.New("down") })

	serve := func(h *HealthHandler) *httptest.ResponseRecorder {
		e := gin.New()
		e.GET("/ready", h.Ready)
		w := httptest.NewRecorder()
		e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		return w
	}

	w := serve(NewHealthHandler("test",
		Dependency{Name: "postgres", Checker: ok, Required: true},
		Dependency{Name: "gateway", Checker: down},
	))
	require.Equal(t, http.StatusOK, w.Code)
	checks := decode(t, w)["checks"].(map[string]any)
	assert.Equal(t, "degraded", checks["gateway"].(map[string]any)["status"])

	w = serve(NewHealthHandler("test", Dependency{Name: "redis", Checker: down, Required: true}))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "not_ready", decode(t, w)["status"])

	w = serve(NewHealthHandler("test", Dependency{Name: "redis", Checker: nil, Required: true}))
	assert.Equal(t, http.StatusOK, w.Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
