package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/appledocs-mcp/internal/availability"
	apperrors "github.com/Aman-CERP/appledocs-mcp/internal/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testDoc(uri, title, content string) *Document {
	return &Document{
		URI:     uri,
		Source:  SourceAppleDocs,
		Title:   title,
		Content: content,
		Kind:    KindDocumentation,
	}
}

func TestIndexDocument_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := testDoc("apple-docs://swiftui/view", "View", "A type that represents part of your app's user interface.")
	doc.Framework = "swiftui"
	doc.Availability = availability.Availability{availability.PlatformIOS: "13.0"}
	require.NoError(t, s.IndexDocument(ctx, doc))

	got, ok, err := s.GetDocumentContent(ctx, "apple-docs://swiftui/view")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "View", got.Title)
	assert.Equal(t, doc.Content, got.Content)
	assert.Equal(t, "swiftui", got.Framework)
	assert.Equal(t, "13.0", got.Availability[availability.PlatformIOS])
	assert.NotEmpty(t, got.ContentHash)
	assert.Equal(t, len(strings.Fields(doc.Content)), got.WordCount)
}

func TestIndexDocument_IdempotentUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := testDoc("apple-docs://swift/array", "Array", "An ordered collection of elements.")
	require.NoError(t, s.IndexDocument(ctx, doc))
	require.NoError(t, s.IndexDocument(ctx, doc))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentCount, "same (uri, content) twice must yield one row")

	first, err := s.Search(ctx, "ordered collection", SearchFilters{})
	require.NoError(t, err)
	second, err := s.Search(ctx, "ordered collection", SearchFilters{})
	require.NoError(t, err)
	assert.Equal(t, first, second, "result set unchanged after re-index")
}

func TestIndexDocument_ReplacesAllFieldsAtomically(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := testDoc("apple-docs://uikit/uiview", "UIView", "Old content about drawing and animation.")
	old.Framework = "uikit"
	old.Availability = availability.Availability{availability.PlatformIOS: "2.0"}
	require.NoError(t, s.IndexDocument(ctx, old))

	updated := testDoc("apple-docs://uikit/uiview", "UIView (updated)", "New content entirely.")
	updated.Framework = "uikit"
	require.NoError(t, s.IndexDocument(ctx, updated))

	got, ok, err := s.GetDocumentContent(ctx, "apple-docs://uikit/uiview")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "UIView (updated)", got.Title)
	assert.Equal(t, "New content entirely.", got.Content)
	// Availability was not carried over from the old row.
	assert.Empty(t, got.Availability)

	// Old content no longer searchable.
	results, err := s.Search(ctx, "drawing animation", SearchFilters{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndexDocuments_RejectsMalformedPerRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	docs := []*Document{
		testDoc("apple-docs://good/one", "One", "valid content here"),
		{URI: "", Source: SourceAppleDocs, Title: "no uri", Content: "x"},
		{URI: "apple-docs://bad/source", Source: "mystery", Title: "t", Content: "x"},
		testDoc("apple-docs://good/two", "Two", "more valid content"),
	}

	res, err := s.IndexDocuments(ctx, docs)
	require.NoError(t, err, "malformed records must not abort the batch")
	assert.Equal(t, 2, res.Indexed)
	assert.Equal(t, 2, res.Rejected)
	require.Len(t, res.Errors, 2)
	assert.True(t, errors.Is(res.Errors[0], apperrors.New(apperrors.ErrCodeInvalidDocument, "", nil)))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.DocumentCount)
}

func TestSummarize_TruncatesAtBudget(t *testing.T) {
	long := strings.Repeat("word ", 1000)
	summary, truncated := summarize(long, DefaultSummaryBudget)
	assert.True(t, truncated)
	assert.LessOrEqual(t, len([]rune(summary)), DefaultSummaryBudget)
	assert.False(t, strings.HasSuffix(summary, " "), "summary trimmed")

	short := "a short document"
	summary, truncated = summarize(short, DefaultSummaryBudget)
	assert.False(t, truncated)
	assert.Equal(t, short, summary)
}

func TestGetDocumentContent_MissingURI(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.GetDocumentContent(context.Background(), "apple-docs://nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListFrameworks_Counts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, fw := range []string{"swiftui", "swiftui", "uikit"} {
		doc := testDoc("apple-docs://doc/"+string(rune('a'+i)), "Doc", "framework content")
		doc.Framework = fw
		require.NoError(t, s.IndexDocument(ctx, doc))
	}
	noFw := testDoc("apple-docs://doc/none", "Doc", "no framework")
	require.NoError(t, s.IndexDocument(ctx, noFw))

	counts, err := s.ListFrameworks(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"swiftui": 2, "uikit": 1}, counts)
}

func TestClose_Idempotent(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Search(context.Background(), "anything", SearchFilters{})
	assert.Error(t, err)
}

func TestOpen_LockExcludesSecondWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	first, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = first.Close() }()

	_, err = Open(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.New(apperrors.ErrCodeIndexLocked, "", nil)))
}

func TestOpen_ReleasesLockOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	assert.NoError(t, second.Close())
}

func TestOpen_SchemaMismatchRefused(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec(`UPDATE schema_version SET version = 99`)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.New(apperrors.ErrCodeSchemaMismatch, "", nil)))
}

func TestRebuild_ClearsEverything(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.IndexDocument(ctx, testDoc("apple-docs://a", "A", "content a")))
	require.NoError(t, s.UpsertSampleProject(ctx, &SampleProject{ID: "p1", Title: "P1"}))
	require.NoError(t, s.Rebuild(ctx))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.DocumentCount)
	assert.Zero(t, stats.SampleCount)

	results, err := s.Search(ctx, "content", SearchFilters{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDeleteBySource(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testDoc("apple-docs://keep", "Keep", "kept content")
	b := testDoc("hig://drop", "Drop", "dropped content")
	b.Source = SourceHIG
	require.NoError(t, s.IndexDocument(ctx, a))
	require.NoError(t, s.IndexDocument(ctx, b))

	n, err := s.DeleteBySource(ctx, SourceHIG)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok, err := s.GetDocumentContent(ctx, "hig://drop")
	require.NoError(t, err)
	assert.False(t, ok)

	results, err := s.Search(ctx, "dropped", SearchFilters{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDerive_SetsLastIndexed(t *testing.T) {
	doc := testDoc("apple-docs://t", "T", "some content")
	require.True(t, doc.LastIndexed.IsZero())
	derive(doc, DefaultSummaryBudget)
	assert.WithinDuration(t, time.Now().UTC(), doc.LastIndexed, time.Minute)
}

func TestOpen_WithSearchLimits(t *testing.T) {
	s, err := Open("", WithSearchLimits(2, 3))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		doc := testDoc("apple-docs://widget/"+string(rune('a'+i)), "Widget", "a reusable widget component")
		require.NoError(t, s.IndexDocument(ctx, doc))
	}

	results, err := s.Search(ctx, "widget", SearchFilters{})
	require.NoError(t, err)
	assert.Len(t, results, 2, "unset limit uses the configured default")

	results, err = s.Search(ctx, "widget", SearchFilters{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, results, 3, "caller limit clamps to the configured maximum")
}

func TestOpen_WithSummaryBudget(t *testing.T) {
	s, err := Open("", WithSummaryBudget(120))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	long := strings.Repeat("word ", 200)
	require.NoError(t, s.IndexDocument(ctx, testDoc("apple-docs://long", "Long", long)))

	got, ok, err := s.GetDocumentContent(ctx, "apple-docs://long")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.SummaryTruncated)
	assert.LessOrEqual(t, len([]rune(got.Summary)), 120)
}
