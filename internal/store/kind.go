package store

import (
	"regexp"
	"strings"
)

// Kind resolution for documents indexed without an explicit kind.
// Three signals, checked in order: title pattern, URL depth, word count.
// Constants are tuned against the indexed corpus, not load-bearing.

const (
	// referenceDepth is the URI path depth at which a page is almost
	// always an API reference leaf rather than an article.
	referenceDepth = 4

	// stubWordCount is the word count under which a page is a bare
	// declaration stub.
	stubWordCount = 60
)

var releaseNotesTitle = regexp.MustCompile(`(?i)\brelease notes\b|\bwhat'?s new\b|\bversion \d+(\.\d+)*\b`)

// resolveKind returns the effective kind for ranking. Documents indexed
// with a concrete kind keep it; unknown kinds are classified from
// metadata already in the row.
func resolveKind(kind Kind, uri, title string, wordCount int) Kind {
	if kind != KindUnknown && kind != "" {
		return kind
	}

	if releaseNotesTitle.MatchString(title) {
		return KindReleaseNotes
	}

	if uriDepth(uri) >= referenceDepth {
		return KindReference
	}

	if wordCount < stubWordCount {
		return KindReference
	}

	return KindDocumentation
}

// uriDepth counts path segments after the scheme and authority.
// "apple-docs://swiftui/view/modifiers/padding" has depth 4.
func uriDepth(uri string) int {
	rest := uri
	if i := strings.Index(uri, "://"); i >= 0 {
		rest = uri[i+3:]
	}
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return 0
	}
	return len(strings.Split(rest, "/"))
}
