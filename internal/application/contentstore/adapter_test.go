package contentstore

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seo-ai-api/internal/config"
	"seo-ai-api/internal/domain/entity"
	"seo-ai-api/internal/infrastructure/persistence/memory"
	apperrors "seo-ai-api/pkg/errors"
)

// recordingRepo 记录写入调用的仓储
type recordingRepo struct {
	*memory.ItemRepository
	mu          sync.Mutex
	addTagCalls [][]string
	titleCalls  []string
	slugCalls   []string
	metaCalls   map[string]string
}

func newRecordingRepo() *recordingRepo {
	return &recordingRepo{ItemRepository: memory.NewItemRepository(), metaCalls: map[string]string{}}
}

func (r *recordingRepo) AddTags(ctx context.Context, id int64, tags []string) error {
	r.mu.Lock()
	r.addTagCalls = append(r.addTagCalls, append([]string(nil), tags...))
	r.mu.Unlock()
	return r.ItemRepository.AddTags(ctx, id, tags)
}

func (r *recordingRepo) UpdateTitle(ctx context.Context, id int64, title string) error {
	r.mu.Lock()
	r.titleCalls = append(r.titleCalls, title)
	r.mu.Unlock()
	return r.ItemRepository.UpdateTitle(ctx, id, title)
}

func (r *recordingRepo) UpdateSlug(ctx context.Context, id int64, slug string) error {
	r.mu.Lock()
	r.slugCalls = append(r.slugCalls, slug)
	r.mu.Unlock()
	return r.ItemRepository.UpdateSlug(ctx, id, slug)
}

func (r *recordingRepo) SetMeta(ctx context.Context, id int64, key, value string) error {
	r.mu.Lock()
	r.metaCalls[key] = value
	r.mu.Unlock()
	return r.ItemRepository.SetMeta(ctx, id, key, value)
}

func testStoreConfig() config.StoreConfig {
	return config.StoreConfig{
		Driver:                   "memory",
		SEOSchemas:               []string{SchemaRankMath, SchemaYoast},
		SpecialItemType:          "prompts",
		AnalysisOverrideField:    "prompts-text",
		AlternateIdentifierField: "latin-name-prompt",
	}
}

func seedItem(t *testing.T, repo *recordingRepo, item *entity.Item) *entity.Item {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), item))
	return item
}

func strPtr(s string) *string { return &s }

func TestGetItem_NotFound(t *testing.T) {
	a := NewAdapter(newRecordingRepo(), testStoreConfig())
	_, err := a.GetItem(context.Background(), 404)
	assert.Equal(t, apperrors.CodeItemNotFound, apperrors.CodeOf(err))
}

func TestSaveTags_StringAndListAreEquivalent(t *testing.T) {
	ctx := context.Background()

	fromString := newRecordingRepo()
	item := seedItem(t, fromString, &entity.Item{Type: "post", Title: "t"})
	require.NoError(t, NewAdapter(fromString, testStoreConfig()).SaveTagString(ctx, item.ID, "a, b ,b,"))

	fromList := newRecordingRepo()
	item2 := seedItem(t, fromList, &entity.Item{Type: "post", Title: "t"})
	require.NoError(t, NewAdapter(fromList, testStoreConfig()).SaveTags(ctx, item2.ID, []string{"a", "b", "b"}))

	assert.Equal(t, [][]string{{"a", "b"}}, fromString.addTagCalls)
	assert.Equal(t, fromString.addTagCalls, fromList.addTagCalls)
}

func TestSaveTags_AppendsToExisting(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	item := seedItem(t, repo, &entity.Item{Type: "post", Tags: []string{"old", "a"}})

	require.NoError(t, NewAdapter(repo, testStoreConfig()).SaveTagString(ctx, item.ID, "a،new"))

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"old", "a", "new"}, got.Tags)
}

func TestSaveTags_EmptyInputMakesNoCall(t *testing.T) {
	repo := newRecordingRepo()
	item := seedItem(t, repo, &entity.Item{Type: "post"})
	require.NoError(t, NewAdapter(repo, testStoreConfig()).SaveTagString(context.Background(), item.ID, " , ,"))
	assert.Empty(t, repo.addTagCalls)
}

func TestSaveSEOMeta_KeywordOnlyLeavesOtherFields(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	item := seedItem(t, repo, &entity.Item{
		Type:  "post",
		Title: "Original",
		Meta: map[string]string{
			entity.MetaRankMathTitle:       "kept title",
			entity.MetaRankMathDescription: "kept description",
		},
	})

	err := NewAdapter(repo, testStoreConfig()).SaveSEOMeta(ctx, item.ID, SEOFields{Keyword: strPtr("coin")})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "coin", got.MetaValue(entity.MetaRankMathKeyword))
	assert.Equal(t, "coin", got.MetaValue(entity.MetaYoastKeyword))
	assert.Equal(t, "kept title", got.MetaValue(entity.MetaRankMathTitle))
	assert.Equal(t, "kept description", got.MetaValue(entity.MetaRankMathDescription))
	assert.Equal(t, "Original", got.Title)
	assert.Empty(t, repo.titleCalls)
}

func TestSaveSEOMeta_SyncsTitleOnlyWhenDifferent(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	item := seedItem(t, repo, &entity.Item{Type: "post", Title: "Same"})
	a := NewAdapter(repo, testStoreConfig())

	require.NoError(t, a.SaveSEOMeta(ctx, item.ID, SEOFields{Title: strPtr("Same")}))
	assert.Empty(t, repo.titleCalls)

	require.NoError(t, a.SaveSEOMeta(ctx, item.ID, SEOFields{Title: strPtr("<b>New</b> title")}))
	assert.Equal(t, []string{"New title"}, repo.titleCalls)
	assert.Equal(t, "New title", repo.metaCalls[entity.MetaYoastTitle])
}

func TestSaveSEOMeta_OnlyActiveSchemas(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	item := seedItem(t, repo, &entity.Item{Type: "post"})
	cfg := testStoreConfig()
	cfg.SEOSchemas = []string{SchemaYoast}

	require.NoError(t, NewAdapter(repo, cfg).SaveSEOMeta(ctx, item.ID, SEOFields{Description: strPtr("d")}))
	assert.Equal(t, map[string]string{entity.MetaYoastDescription: "d"}, repo.metaCalls)
}

func TestSaveAlternateIdentifier(t *testing.T) {
	ctx := context.Background()

	t.Run("special type updates slug when different", func(t *testing.T) {
		repo := newRecordingRepo()
		item := seedItem(t, repo, &entity.Item{Type: "prompts", Slug: "old"})
		require.NoError(t, NewAdapter(repo, testStoreConfig()).SaveAlternateIdentifier(ctx, item.ID, "Gold Coin on Wood"))

		got, _ := repo.GetByID(ctx, item.ID)
		assert.Equal(t, "gold-coin-on-wood", got.Slug)
		assert.Equal(t, "Gold Coin on Wood", got.MetaValue("latin-name-prompt"))
	})

	t.Run("same slug is not rewritten", func(t *testing.T) {
		repo := newRecordingRepo()
		item := seedItem(t, repo, &entity.Item{Type: "prompts", Slug: "gold-coin"})
		require.NoError(t, NewAdapter(repo, testStoreConfig()).SaveAlternateIdentifier(ctx, item.ID, "gold-coin"))
		assert.Empty(t, repo.slugCalls)
	})

	t.Run("regular type is ignored", func(t *testing.T) {
		repo := newRecordingRepo()
		item := seedItem(t, repo, &entity.Item{Type: "post", Slug: "old"})
		require.NoError(t, NewAdapter(repo, testStoreConfig()).SaveAlternateIdentifier(ctx, item.ID, "new-name"))
		assert.Empty(t, repo.slugCalls)
		assert.Empty(t, repo.metaCalls)
	})
}

func TestSaveBody_SanitizesHTML(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	item := seedItem(t, repo, &entity.Item{Type: "post", Body: "old"})

	require.NoError(t, NewAdapter(repo, testStoreConfig()).SaveBody(ctx, item.ID, `<p>hello</p><script>alert(1)</script>`))

	got, _ := repo.GetByID(ctx, item.ID)
	assert.Equal(t, "<p>hello</p>", got.Body)
}

func TestSaveBody_RendersMarkdown(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	item := seedItem(t, repo, &entity.Item{Type: "post", Body: "old"})

	require.NoError(t, NewAdapter(repo, testStoreConfig()).SaveBody(ctx, item.ID, "## Care\n\nWater **weekly**."))

	got, _ := repo.GetByID(ctx, item.ID)
	assert.Contains(t, got.Body, "<h2>Care</h2>")
	assert.Contains(t, got.Body, "<strong>weekly</strong>")
}

func TestSaveImageAltText_NoImageIsNoop(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	item := seedItem(t, repo, &entity.Item{Type: "post"})

	require.NoError(t, NewAdapter(repo, testStoreConfig()).SaveImageAltText(ctx, item.ID, "alt"))
}

func TestSaveImageAltText_WritesAttachmentMeta(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	att := &entity.Attachment{MimeType: "image/png"}
	require.NoError(t, repo.CreateAttachment(ctx, att))
	item := seedItem(t, repo, &entity.Item{Type: "post", FeaturedImageID: att.ID})

	require.NoError(t, NewAdapter(repo, testStoreConfig()).SaveImageAltText(ctx, item.ID, "a <i>gold</i> coin"))

	got, err := repo.GetAttachment(ctx, att.ID)
	require.NoError(t, err)
	assert.Equal(t, "a gold coin", got.Meta[entity.MetaAttachmentAlt])
}

func TestAnalysisText(t *testing.T) {
	a := NewAdapter(newRecordingRepo(), testStoreConfig())

	special := &entity.Item{Type: "prompts", Body: "body", Meta: map[string]string{"prompts-text": "override"}}
	assert.Equal(t, "override", a.AnalysisText(special))

	emptyOverride := &entity.Item{Type: "prompts", Body: "body", Meta: map[string]string{"prompts-text": "  "}}
	assert.Equal(t, "body", a.AnalysisText(emptyOverride))

	regular := &entity.Item{Type: "post", Body: "body", Meta: map[string]string{"prompts-text": "override"}}
	assert.Equal(t, "body", a.AnalysisText(regular))
}

func TestSEOStatus(t *testing.T) {
	a := NewAdapter(newRecordingRepo(), testStoreConfig())
	assert.Equal(t, "pending", a.SEOStatus(&entity.Item{}))
	assert.Equal(t, "done", a.SEOStatus(&entity.Item{Meta: map[string]string{entity.MetaYoastKeyword: "k"}}))
}

func TestLoadImage(t *testing.T) {
	ctx := context.Background()
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	t.Run("no featured image", func(t *testing.T) {
		a := NewAdapter(newRecordingRepo(), testStoreConfig())
		_, err := a.LoadImage(ctx, &entity.Item{ID: 1})
		assert.Equal(t, apperrors.CodeNoImage, apperrors.CodeOf(err))
	})

	t.Run("missing file", func(t *testing.T) {
		repo := newRecordingRepo()
		att := &entity.Attachment{MimeType: "image/png"}
		require.NoError(t, repo.CreateAttachment(ctx, att))
		_, err := NewAdapter(repo, testStoreConfig()).LoadImage(ctx, &entity.Item{ID: 1, FeaturedImageID: att.ID})
		assert.Equal(t, apperrors.CodeNoImage, apperrors.CodeOf(err))
	})

	t.Run("sniffs mime type", func(t *testing.T) {
		repo := newRecordingRepo()
		att := &entity.Attachment{}
		require.NoError(t, repo.CreateAttachment(ctx, att))
		repo.PutFile(att.ID, png)

		img, err := NewAdapter(repo, testStoreConfig()).LoadImage(ctx, &entity.Item{ID: 1, FeaturedImageID: att.ID})
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.MimeType)
		assert.Equal(t, base64.StdEncoding.EncodeToString(png), img.Base64)
	})
}

func TestSaveAll_VisionAltWins(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	att := &entity.Attachment{MimeType: "image/png"}
	require.NoError(t, repo.CreateAttachment(ctx, att))
	item := seedItem(t, repo, &entity.Item{Type: "post", Title: "t", FeaturedImageID: att.ID})

	err := NewAdapter(repo, testStoreConfig()).SaveAll(ctx, item.ID, SaveAllFields{
		SEOFields: SEOFields{Keyword: strPtr("k")},
		Tags:      []string{"x"},
		ImageAlt:  "from content",
		VisionAlt: "from vision",
	})
	require.NoError(t, err)

	got, _ := repo.GetAttachment(ctx, att.ID)
	assert.Equal(t, "from vision", got.Meta[entity.MetaAttachmentAlt])
	assert.Equal(t, [][]string{{"x"}}, repo.addTagCalls)
}

func TestSaveAll_UnknownItem(t *testing.T) {
	err := NewAdapter(newRecordingRepo(), testStoreConfig()).SaveAll(context.Background(), 77, SaveAllFields{})
	assert.Equal(t, apperrors.CodeItemNotFound, apperrors.CodeOf(err))
}

type txKey struct{}

// fakeTransactor 在上下文中打标记，模拟事务传播
type fakeTransactor struct {
	calls int
	sawTx bool
}

func (f *fakeTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(context.WithValue(ctx, txKey{}, true))
}

// txRepo 记录写入是否发生在事务上下文内
type txRepo struct {
	*recordingRepo
	tx *fakeTransactor
}

func (r *txRepo) AddTags(ctx context.Context, id int64, tags []string) error {
	r.tx.sawTx, _ = ctx.Value(txKey{}).(bool)
	return r.recordingRepo.AddTags(ctx, id, tags)
}

func TestSaveAll_RunsInTransaction(t *testing.T) {
	ctx := context.Background()
	tx := &fakeTransactor{}
	repo := &txRepo{recordingRepo: newRecordingRepo(), tx: tx}
	item := seedItem(t, repo.recordingRepo, &entity.Item{Type: "post", Title: "t"})

	err := NewAdapter(repo, testStoreConfig(), WithTransactor(tx)).SaveAll(ctx, item.ID, SaveAllFields{
		Tags: []string{"a"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, tx.calls)
	assert.True(t, tx.sawTx)
}

func TestSaveAll_TransactionPropagatesError(t *testing.T) {
	tx := &fakeTransactor{}
	err := NewAdapter(newRecordingRepo(), testStoreConfig(), WithTransactor(tx)).SaveAll(context.Background(), 5, SaveAllFields{})
	assert.Equal(t, 1, tx.calls)
	assert.Equal(t, apperrors.CodeItemNotFound, apperrors.CodeOf(err))
}
