package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationOptions_Plan(t *testing.T) {
	tests := []struct {
		name string
		opts GenerationOptions
		want []TaskKind
	}{
		{"nothing selected", GenerationOptions{}, nil},
		{"slug and strict only", GenerationOptions{UpdateSlug: true, StrictTitleMode: true}, nil},
		{"seo", GenerationOptions{GenerateSEO: true}, []TaskKind{TaskSEO}},
		{"content covers alt", GenerationOptions{GenerateContent: true, GenerateAltText: true}, []TaskKind{TaskContent}},
		{"alt only uses vision", GenerationOptions{GenerateAltText: true}, []TaskKind{TaskVision}},
		{"all", GenerationOptions{GenerateSEO: true, GenerateContent: true, GenerateAltText: true}, []TaskKind{TaskSEO, TaskContent}},
		{"seo and alt", GenerationOptions{GenerateSEO: true, GenerateAltText: true}, []TaskKind{TaskSEO, TaskVision}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.Plan())
		})
	}
}

func TestGenerationOptions_JSONFlags(t *testing.T) {
	var opts GenerationOptions
	require.NoError(t, json.Unmarshal([]byte(`{"do_seo":true,"do_alt":true,"strict_mode":true}`), &opts))
	assert.True(t, opts.GenerateSEO)
	assert.True(t, opts.GenerateAltText)
	assert.True(t, opts.StrictTitleMode)
	assert.False(t, opts.GenerateContent)
	assert.False(t, opts.UpdateSlug)
}

func TestParseTaskKind(t *testing.T) {
	k, err := ParseTaskKind("vision")
	require.NoError(t, err)
	assert.Equal(t, TaskVision, k)

	_, err = ParseTaskKind("meta")
	assert.Error(t, err)
}

func TestAIResponse_SEO(t *testing.T) {
	var resp AIResponse
	require.NoError(t, json.Unmarshal([]byte(`{
		"title": "عنوان",
		"keyword": "کلمه",
		"tags": ["a", "b"],
		"latin_name": ""
	}`), &resp))

	seo := resp.SEO()
	require.NotNil(t, seo.Title)
	assert.Equal(t, "عنوان", *seo.Title)
	assert.Nil(t, seo.Description)
	assert.Equal(t, []string{"a", "b"}, seo.Tags)
	assert.Empty(t, seo.LatinName)
}

func TestAIResponse_StringsFromDelimited(t *testing.T) {
	resp := AIResponse{"visual_tags": "gold, coin", "n": float64(3)}
	assert.Equal(t, []string{"gold", " coin"}, resp.Strings("visual_tags"))
	assert.Equal(t, "3", resp.String("n"))
	assert.Nil(t, resp.Strings("missing"))

	persian := AIResponse{"tags": "طلا،سکه,نقره"}
	assert.Equal(t, []string{"طلا", "سکه", "نقره"}, persian.Strings("tags"))
}

func TestOperationResult_LogLine(t *testing.T) {
	ok := NewSuccessResult(12, TaskSEO)
	assert.Equal(t, "✓ [#12] SEO OK", ok.LogLine())

	fail := NewFailureResult(3, TaskContent, StageGatewayFailed, "NETWORK_ERROR", "Worker Error: timeout")
	assert.True(t, fail.Failed())
	assert.Equal(t, "✗ [#3] Content Error (Worker Error: timeout)", fail.LogLine())

	skip := NewSkippedResult(4, TaskVision, "no featured image")
	assert.Equal(t, "– [#4] Alt Skipped (no featured image)", skip.LogLine())

	done := NewDoneMarker(5, 1)
	assert.Equal(t, ResultDone, done.Status)
	assert.Contains(t, done.LogLine(), "Completed")
}

func TestBulkJob_Lifecycle(t *testing.T) {
	job := NewBulkJob([]int64{1, 2}, GenerationOptions{GenerateSEO: true})
	assert.Equal(t, JobStatusPending, job.Status)

	job.Start()
	job.Record([]OperationResult{NewSuccessResult(1, TaskSEO)})
	assert.Equal(t, 50, job.Progress)

	job.Record([]OperationResult{NewFailureResult(2, TaskSEO, StageGatewayFailed, "NETWORK_ERROR", "x")})
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, 1, job.Failures)

	job.Complete()
	assert.True(t, job.IsTerminal())
	assert.Len(t, job.Results, 2)
}

func TestBulkJob_StartKeepsRecordedProgress(t *testing.T) {
	job := NewBulkJob([]int64{1, 2, 3}, GenerationOptions{GenerateSEO: true})
	job.Start()
	started := job.StartedAt
	job.Record([]OperationResult{NewSuccessResult(1, TaskSEO)})

	job.Start()
	assert.Equal(t, started, job.StartedAt)
	assert.Equal(t, []int64{2, 3}, job.Remaining())
	assert.Len(t, job.Results, 1)
}

func TestBulkJob_StartResetsInconsistentProgress(t *testing.T) {
	job := NewBulkJob([]int64{1}, GenerationOptions{GenerateSEO: true})
	job.Processed = 4
	job.Failures = 2
	job.Results = []OperationResult{NewSuccessResult(1, TaskSEO)}

	job.Start()
	assert.Equal(t, 0, job.Processed)
	assert.Equal(t, 0, job.Failures)
	assert.Empty(t, job.Results)
	assert.Equal(t, []int64{1}, job.Remaining())
}
