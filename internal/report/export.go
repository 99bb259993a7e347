// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/arxiv-trends/pkg/types"
)

// WriteFiles exports a rendered report as markdown and HTML files under
// dir, named report-<runID>.md and report-<runID>.html. It returns the
// two paths written.
func WriteFiles(dir string, r *types.Report) (mdPath, htmlPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating report directory: %w", err)
	}

	mdPath = filepath.Join(dir, fmt.Sprintf("report-%s.md", r.RunID))
	if err := os.WriteFile(mdPath, []byte(r.BodyMarkdown), 0o644); err != nil {
		return "", "", fmt.Errorf("writing markdown report: %w", err)
	}

	htmlPath = filepath.Join(dir, fmt.Sprintf("report-%s.html", r.RunID))
	if err := os.WriteFile(htmlPath, []byte(r.BodyHTML), 0o644); err != nil {
		return "", "", fmt.Errorf("writing HTML report: %w", err)
	}

	return mdPath, htmlPath, nil
}
