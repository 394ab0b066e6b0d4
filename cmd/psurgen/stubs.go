package main

// The collaborator implementations in this file are deliberately thin:
// DOCX/chart rendering, LLM prompting transport and ZIP packaging are
// explicitly out of scope for the core module (see pkg/psur/collaborators),
// so the CLI wires the simplest real implementation that lets a run
// complete end to end rather than a production renderer.

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/certen-health/psurgen/pkg/psur/collaborators"
)

// jsonPackLoader reads a pack.manifest.json plus one JSON array file per
// canonical dataset target from a directory on the local filesystem.
type jsonPackLoader struct{}

func newJSONPackLoader() *jsonPackLoader { return &jsonPackLoader{} }

func (l *jsonPackLoader) LoadManifest(ctx context.Context, packDir string) (collaborators.Manifest, error) {
	data, err := os.ReadFile(filepath.Join(packDir, "pack.manifest.json"))
	if err != nil {
		return collaborators.Manifest{}, fmt.Errorf("jsonPackLoader: failed to read manifest: %w", err)
	}

	var manifest collaborators.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return collaborators.Manifest{}, fmt.Errorf("jsonPackLoader: failed to parse manifest: %w", err)
	}

	for i, f := range manifest.Files {
		if f.SHA256 != "" {
			continue
		}
		sum, err := hashFile(filepath.Join(packDir, f.FileName))
		if err != nil {
			return collaborators.Manifest{}, err
		}
		manifest.Files[i].SHA256 = sum
	}

	return manifest, nil
}

func (l *jsonPackLoader) LoadDatasets(ctx context.Context, packDir string, files []collaborators.FileDescriptor) ([]collaborators.NormalizedDataset, error) {
	out := make([]collaborators.NormalizedDataset, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(packDir, f.FileName))
		if err != nil {
			return nil, fmt.Errorf("jsonPackLoader: failed to read %s: %w", f.FileName, err)
		}

		var rows []map[string]any
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("jsonPackLoader: failed to parse %s: %w", f.FileName, err)
		}

		out = append(out, collaborators.NormalizedDataset{CanonicalTarget: f.CanonicalTarget, Rows: rows})
	}
	return out, nil
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("jsonPackLoader: failed to hash %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// plaintextDocxRenderer renders the PSUR as a plain-text stand-in for a
// real DOCX template fill.
type plaintextDocxRenderer struct{}

func (plaintextDocxRenderer) Render(ctx context.Context, templateID string, sections []any, tables []any) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Periodic Safety Update Report (template %s)\n\n", templateID)
	for _, s := range sections {
		b, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return nil, err
		}
		buf.Write(b)
		buf.WriteString("\n\n")
	}
	for _, t := range tables {
		b, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return nil, err
		}
		buf.Write(b)
		buf.WriteString("\n\n")
	}
	return buf.Bytes(), nil
}

// svgTrendChartRenderer renders the monthly complaint-rate series as a
// minimal inline SVG rather than a raster chart.
type svgTrendChartRenderer struct{}

func (svgTrendChartRenderer) RenderTrendChart(ctx context.Context, monthlySeries []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="640" height="240">`)
	for i, p := range monthlySeries {
		fmt.Fprintf(&buf, `<circle cx="%d" cy="120" r="2" data-point="%v"/>`, 10+i*20, p)
	}
	buf.WriteString(`</svg>`)
	return buf.Bytes(), nil
}

// flatZipPackager deflates every file into a single archive at deflate
// level 9, per collaborators.ZipPackager's documented contract.
type flatZipPackager struct{}

func (flatZipPackager) Package(ctx context.Context, files map[string][]byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	w.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})
	for name, content := range files {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("flatZipPackager: failed to add %s: %w", name, err)
		}
		if _, err := fw.Write(content); err != nil {
			return nil, fmt.Errorf("flatZipPackager: failed to write %s: %w", name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("flatZipPackager: failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
