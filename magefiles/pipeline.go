package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Ingest builds the CLI and runs one fetch-classify-store pass.
func Ingest() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "ingest")
}

// Report builds the CLI and renders a preview of the latest run's report.
func Report() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "report", "--preview")
}

// Serve builds the CLI and runs the HTTP server until interrupted.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "serve")
}
