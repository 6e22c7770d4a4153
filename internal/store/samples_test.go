package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleProject_UpsertAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &SampleProject{ID: "fruta", Title: "Fruta: Building a Feature-Rich App", Framework: "swiftui"}
	require.NoError(t, s.UpsertSampleProject(ctx, p))

	// Upsert replaces.
	p.Description = "smoothie ordering sample"
	require.NoError(t, s.UpsertSampleProject(ctx, p))

	all, err := s.ListSampleProjects(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "smoothie ordering sample", all[0].Description)

	filtered, err := s.ListSampleProjects(ctx, "uikit")
	require.NoError(t, err)
	assert.Empty(t, filtered)
}

func TestSampleProject_ValidationErrors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	assert.Error(t, s.UpsertSampleProject(ctx, &SampleProject{ID: "", Title: "x"}))
	assert.Error(t, s.UpsertSampleProject(ctx, &SampleProject{ID: "p", Title: " "}))
}

func TestSampleFile_KeyedByProjectAndPath(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertSampleProject(ctx, &SampleProject{ID: "fruta", Title: "Fruta"}))
	require.NoError(t, s.UpsertSampleFile(ctx, &SampleFile{ProjectID: "fruta", Path: "App/FrutaApp.swift", Content: "import SwiftUI"}))
	require.NoError(t, s.UpsertSampleFile(ctx, &SampleFile{ProjectID: "fruta", Path: "App/Model.swift", Content: "struct Model {}"}))

	f, ok, err := s.GetSampleFile(ctx, "fruta", "App/FrutaApp.swift")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "import SwiftUI", f.Content)

	_, ok, err = s.GetSampleFile(ctx, "fruta", "missing.swift")
	require.NoError(t, err)
	assert.False(t, ok)

	paths, err := s.ListSampleFiles(ctx, "fruta")
	require.NoError(t, err)
	assert.Equal(t, []string{"App/FrutaApp.swift", "App/Model.swift"}, paths)
}

func TestSampleFile_UpsertReplacesContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertSampleProject(ctx, &SampleProject{ID: "p", Title: "P"}))
	require.NoError(t, s.UpsertSampleFile(ctx, &SampleFile{ProjectID: "p", Path: "a.swift", Content: "v1"}))
	require.NoError(t, s.UpsertSampleFile(ctx, &SampleFile{ProjectID: "p", Path: "a.swift", Content: "v2"}))

	f, ok, err := s.GetSampleFile(ctx, "p", "a.swift")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", f.Content)
}
