package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveKind_ExplicitKindWins(t *testing.T) {
	got := resolveKind(KindTutorial, "apple-docs://a/b/c/d/e", "iOS 17 Release Notes", 10)
	assert.Equal(t, KindTutorial, got, "explicit kinds are never reclassified")
}

func TestResolveKind_ReleaseNotesByTitle(t *testing.T) {
	titles := []string{
		"iOS 17 Release Notes",
		"What's New in SwiftUI",
		"Xcode Version 15.2 Overview",
	}
	for _, title := range titles {
		got := resolveKind(KindUnknown, "apple-docs://x", title, 500)
		assert.Equal(t, KindReleaseNotes, got, "title %q", title)
	}
}

func TestResolveKind_DeepURIIsReference(t *testing.T) {
	got := resolveKind(KindUnknown, "apple-docs://swiftui/view/modifiers/padding", "padding(_:)", 300)
	assert.Equal(t, KindReference, got)
}

func TestResolveKind_StubWordCountIsReference(t *testing.T) {
	got := resolveKind(KindUnknown, "apple-docs://swiftui/view", "View", 20)
	assert.Equal(t, KindReference, got)
}

func TestResolveKind_DefaultDocumentation(t *testing.T) {
	got := resolveKind(KindUnknown, "apple-docs://swiftui/tutorial", "Building Lists", 800)
	assert.Equal(t, KindDocumentation, got)
}

func TestURIDepth(t *testing.T) {
	tests := []struct {
		uri  string
		want int
	}{
		{"apple-docs://swiftui", 1},
		{"apple-docs://swiftui/view", 2},
		{"apple-docs://swiftui/view/modifiers/padding", 4},
		{"apple-docs://", 0},
		{"no-scheme/path", 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, uriDepth(tt.uri), "uri %q", tt.uri)
	}
}
