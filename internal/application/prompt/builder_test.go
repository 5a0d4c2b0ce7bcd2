package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"seo-ai-api/internal/config"
	"seo-ai-api/internal/domain/entity"
)

func newTestBuilder(brain config.BrainConfig) *Builder {
	return NewBuilder(config.PromptConfig{MaxBodyRunes: 4000, Language: "Persian"}, brain)
}

func TestBuild_SEODefaultIsCatchyWithEmptySlug(t *testing.T) {
	b := newTestBuilder(config.BrainConfig{})
	out := b.Build(entity.TaskSEO, "Gold coin", "<p>A gold coin on wood</p>", entity.GenerationOptions{})

	assert.NotContains(t, out, StrictTitleInstruction)
	assert.NotContains(t, out, "STRICTLY DESCRIPTIVE")
	assert.Contains(t, out, CatchyTitleInstruction)
	assert.Contains(t, out, SlugFieldEmpty)
	assert.NotContains(t, out, "kebab-case")
	assert.Contains(t, out, "Respond ONLY with the following JSON structure (no markdown)")
}

func TestBuild_SEOStrictWithSlug(t *testing.T) {
	b := newTestBuilder(config.BrainConfig{})
	out := b.Build(entity.TaskSEO, "t", "b", entity.GenerationOptions{StrictTitleMode: true, UpdateSlug: true})

	assert.Contains(t, out, StrictTitleInstruction)
	assert.NotContains(t, out, CatchyTitleInstruction)
	assert.Contains(t, out, SlugFieldRequested)
	for _, field := range []string{`"title"`, `"keyword"`, `"description"`, `"tags"`, `"latin_name"`} {
		assert.Contains(t, out, field)
	}
}

func TestBuild_PreambleAndOptionalBlocks(t *testing.T) {
	plain := newTestBuilder(config.BrainConfig{}).Build(entity.TaskContent, "t", "b", entity.GenerationOptions{})
	assert.True(t, strings.HasPrefix(plain, "Act as an Expert SEO Specialist and Content Creator."))
	assert.Contains(t, plain, "Your responses must be in Persian.")
	assert.NotContains(t, plain, "KNOWLEDGE BASE")
	assert.NotContains(t, plain, "CUSTOM RULES")

	withKB := newTestBuilder(config.BrainConfig{KnowledgeBase: "We sell prompts."}).
		Build(entity.TaskContent, "t", "b", entity.GenerationOptions{})
	assert.Contains(t, withKB, "--- KNOWLEDGE BASE (Use this context):\nWe sell prompts.\n---")
	assert.NotContains(t, withKB, "CUSTOM RULES")

	withRules := newTestBuilder(config.BrainConfig{CustomRules: "No emojis."}).
		Build(entity.TaskContent, "t", "b", entity.GenerationOptions{})
	assert.NotContains(t, withRules, "KNOWLEDGE BASE")
	assert.Contains(t, withRules, "--- CUSTOM RULES (Must Follow):\nNo emojis.\n---")
}

func TestBuild_ContentTask(t *testing.T) {
	out := newTestBuilder(config.BrainConfig{}).Build(entity.TaskContent, "Title", "Body", entity.GenerationOptions{})
	assert.Contains(t, out, "--- CONTENT TO ANALYZE ---\nTitle: Title\nBody: Body")
	assert.Contains(t, out, "150-word")
	assert.Contains(t, out, "10-15 words")
	assert.Contains(t, out, `"content_body"`)
	assert.Contains(t, out, `"image_alt"`)
}

func TestBuild_VisionOmitsItemContext(t *testing.T) {
	out := newTestBuilder(config.BrainConfig{}).Build(entity.TaskVision, "Title", "secret body", entity.GenerationOptions{})
	assert.NotContains(t, out, "CONTENT TO ANALYZE")
	assert.NotContains(t, out, "secret body")
	assert.Contains(t, out, "5-7 main keywords")
	assert.Contains(t, out, "max 15 words")
	assert.Contains(t, out, `"art_style"`)
	assert.Contains(t, out, `"visual_tags"`)
	assert.Contains(t, out, `"alt_text"`)
}

func TestBuild_BodyIsStrippedThenTruncated(t *testing.T) {
	b := NewBuilder(config.PromptConfig{MaxBodyRunes: 10, Language: "Persian"}, config.BrainConfig{})
	body := "<script>alert(1)</script><p>سلام دنیا، این یک متن طولانی است</p>"
	out := b.Build(entity.TaskContent, "t", body, entity.GenerationOptions{})

	assert.NotContains(t, out, "<p>")
	assert.NotContains(t, out, "alert")
	idx := strings.Index(out, "Body: ")
	end := strings.Index(out, "\n\n--- TASK ---")
	got := out[idx+len("Body: ") : end]
	assert.Equal(t, 10, utf8.RuneCountInString(got))
	assert.Equal(t, "سلام دنیا،", got)
}
