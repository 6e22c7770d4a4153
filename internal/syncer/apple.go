package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/Aman-CERP/appledocs-mcp/internal/availability"
	apperrors "github.com/Aman-CERP/appledocs-mcp/internal/errors"
	"github.com/Aman-CERP/appledocs-mcp/internal/store"
)

// phaseSources maps sync phases to the corpus their documents land in.
var phaseSources = map[Phase]store.Source{
	PhaseDocs:      store.SourceAppleDocs,
	PhaseEvolution: store.SourceSwiftEvolution,
	PhaseSamples:   store.SourceSamples,
}

// phaseIndex is the remote enumeration manifest for one phase:
// framework name -> ordered file paths.
type phaseIndex struct {
	Frameworks []struct {
		Name  string   `json:"name"`
		Files []string `json:"files"`
	} `json:"frameworks"`
}

// AppleSource enumerates and fetches the Apple documentation corpus.
// Each phase publishes a manifest at data/{phase}/index.json; the
// manifest is fetched once per phase and cached for the run.
type AppleSource struct {
	fetcher ContentFetcher
	indexes map[Phase]*phaseIndex
}

// NewAppleSource creates a source reading through the given fetcher.
func NewAppleSource(fetcher ContentFetcher) *AppleSource {
	return &AppleSource{
		fetcher: fetcher,
		indexes: make(map[Phase]*phaseIndex),
	}
}

func (a *AppleSource) phase(ctx context.Context, phase Phase) (*phaseIndex, error) {
	if idx, ok := a.indexes[phase]; ok {
		return idx, nil
	}

	data, err := a.fetcher.Fetch(ctx, fmt.Sprintf("data/%s/index.json", phase))
	if err != nil {
		return nil, fmt.Errorf("fetch %s manifest: %w", phase, err)
	}
	var idx phaseIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidDocument,
			fmt.Sprintf("%s manifest is not valid JSON", phase), err)
	}
	a.indexes[phase] = &idx
	return &idx, nil
}

func (a *AppleSource) Frameworks(ctx context.Context, phase Phase) ([]string, error) {
	idx, err := a.phase(ctx, phase)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(idx.Frameworks))
	for _, fw := range idx.Frameworks {
		names = append(names, fw.Name)
	}
	return names, nil
}

func (a *AppleSource) Files(ctx context.Context, phase Phase, framework string) ([]string, error) {
	idx, err := a.phase(ctx, phase)
	if err != nil {
		return nil, err
	}
	for _, fw := range idx.Frameworks {
		if fw.Name == framework {
			return fw.Files, nil
		}
	}
	return nil, nil
}

func (a *AppleSource) Fetch(ctx context.Context, p string) ([]byte, error) {
	return a.fetcher.Fetch(ctx, p)
}

// applePage is the remote document payload shape.
type applePage struct {
	Title     string `json:"title"`
	Abstract  string `json:"abstract"`
	Content   string `json:"content"`
	Language  string `json:"language"`
	Kind      string `json:"kind"`
	Platforms []struct {
		Name         string `json:"name"`
		IntroducedAt string `json:"introducedAt"`
	} `json:"platforms"`

	// Sample payloads only.
	Project     string `json:"project"`
	Description string `json:"description"`
	FilePath    string `json:"filePath"`
	URL         string `json:"url"`
}

// AppleProducer turns fetched page payloads into store records.
type AppleProducer struct{}

func (AppleProducer) Produce(phase Phase, framework, filePath string, content []byte) (*Produced, error) {
	var page applePage
	if err := json.Unmarshal(content, &page); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidDocument,
			"page payload is not valid JSON", err).
			WithDetail("path", filePath)
	}

	if phase == PhaseSamples {
		return produceSample(framework, filePath, &page)
	}

	source, ok := phaseSources[phase]
	if !ok {
		source = store.SourceAppleDocs
	}

	body := page.Content
	if body == "" {
		body = page.Abstract
	}

	doc := &store.Document{
		URI:          docURI(source, framework, filePath),
		Source:       source,
		Framework:    framework,
		Title:        page.Title,
		Content:      body,
		FilePath:     filePath,
		Language:     page.Language,
		Kind:         store.Kind(page.Kind),
		Availability: availability.Availability{},
	}
	for _, p := range page.Platforms {
		platform := availability.Platform(strings.ToLower(p.Name))
		if p.IntroducedAt != "" {
			doc.Availability[platform] = p.IntroducedAt
		}
	}
	if page.Kind == "" {
		doc.Kind = store.KindUnknown
	}
	return &Produced{Document: doc}, nil
}

// produceSample emits the sample project on its first file, then the
// file itself.
func produceSample(framework, filePath string, page *applePage) (*Produced, error) {
	if page.Project == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidDocument,
			"sample payload has no project id", nil).
			WithDetail("path", filePath)
	}
	out := &Produced{
		File: &store.SampleFile{
			ProjectID: page.Project,
			Path:      page.FilePath,
			Content:   page.Content,
		},
	}
	if page.Title != "" {
		out.Project = &store.SampleProject{
			ID:          page.Project,
			Title:       page.Title,
			Framework:   framework,
			Description: page.Description,
			URL:         page.URL,
		}
	}
	return out, nil
}

// docURI builds a stable document URI from the source, framework and
// remote path, dropping the file extension.
func docURI(source store.Source, framework, filePath string) string {
	slug := strings.TrimSuffix(filePath, path.Ext(filePath))
	slug = strings.TrimPrefix(slug, "data/")
	slug = strings.TrimPrefix(slug, string(source)+"/")
	slug = strings.TrimPrefix(slug, framework+"/")
	if framework != "" {
		return fmt.Sprintf("%s://%s/%s", source, framework, slug)
	}
	return fmt.Sprintf("%s://%s", source, slug)
}
