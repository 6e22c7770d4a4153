package store

import (
	"context"
	"database/sql"
	"strings"

	apperrors "github.com/Aman-CERP/appledocs-mcp/internal/errors"
)

// UpsertSampleProject inserts or replaces a sample project row.
func (s *Store) UpsertSampleProject(ctx context.Context, p *SampleProject) error {
	if strings.TrimSpace(p.ID) == "" {
		return apperrors.New(apperrors.ErrCodeInvalidDocument, "sample project id is required", nil)
	}
	if strings.TrimSpace(p.Title) == "" {
		return apperrors.New(apperrors.ErrCodeInvalidDocument, "sample project title is required", nil).
			WithDetail("project", p.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sample_projects (id, title, framework, description, url)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			framework = excluded.framework,
			description = excluded.description,
			url = excluded.url`,
		p.ID, p.Title, nullable(p.Framework), nullable(p.Description), nullable(p.URL))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeIndexWrite, err)
	}
	return nil
}

// UpsertSampleFile inserts or replaces a file keyed by (projectID, path).
// The project must exist.
func (s *Store) UpsertSampleFile(ctx context.Context, f *SampleFile) error {
	if f.ProjectID == "" || f.Path == "" {
		return apperrors.New(apperrors.ErrCodeInvalidDocument, "sample file requires project id and path", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sample_files (project_id, path, content)
		VALUES (?, ?, ?)
		ON CONFLICT(project_id, path) DO UPDATE SET
			content = excluded.content`,
		f.ProjectID, f.Path, f.Content)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeIndexWrite, err)
	}
	return nil
}

// ListSampleProjects returns sample projects, optionally filtered by
// framework, ordered by id for deterministic output.
func (s *Store) ListSampleProjects(ctx context.Context, framework string) ([]SampleProject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	query := `SELECT id, title, framework, description, url FROM sample_projects`
	var args []any
	if framework != "" {
		query += ` WHERE framework = ?`
		args = append(args, framework)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIndexOpen, err)
	}
	defer rows.Close()

	var out []SampleProject
	for rows.Next() {
		var p SampleProject
		var fw, desc, url sql.NullString
		if err := rows.Scan(&p.ID, &p.Title, &fw, &desc, &url); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeIndexOpen, err)
		}
		p.Framework = fw.String
		p.Description = desc.String
		p.URL = url.String
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetSampleFile returns one file, or ok=false if absent.
func (s *Store) GetSampleFile(ctx context.Context, projectID, path string) (*SampleFile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, errClosed()
	}

	f := &SampleFile{ProjectID: projectID, Path: path}
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM sample_files WHERE project_id = ? AND path = ?`,
		projectID, path).Scan(&f.Content)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.ErrCodeIndexOpen, err)
	}
	return f, true, nil
}

// ListSampleFiles returns the paths of all files in a project.
func (s *Store) ListSampleFiles(ctx context.Context, projectID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT path FROM sample_files WHERE project_id = ? ORDER BY path`, projectID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIndexOpen, err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeIndexOpen, err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}
