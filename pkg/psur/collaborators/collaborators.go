// Package collaborators declares the external-collaborator interfaces
// the core pipeline delegates to: pack loading, DOCX rendering, chart
// rendering, and ZIP packaging. Per spec these are out-of-scope; only
// the interfaces and the DTOs the core exchanges with them live here.
package collaborators

import "context"

// FileDescriptor is one entry of the pack manifest.
type FileDescriptor struct {
	FileName        string
	CanonicalTarget string // one of device_master, sales_exposure, complaints, serious_incidents, capa, fsca, literature, pmcf, risk_summary, distribution, vigilance
	SHA256          string
}

// Manifest is the parsed form of <packDir>/pack.manifest.json.
type Manifest struct {
	DeviceName      string
	DeviceModel     string
	Manufacturer    string
	CaseStart       string // YYYY-MM-DD
	CaseEnd         string
	RegulatoryRefs  []string
	Files           []FileDescriptor
}

// NormalizedDataset is one parsed canonical dataset, keyed by the
// descriptor's CanonicalTarget. Rows are opaque to the loader; each
// downstream task type-asserts the row shape it expects.
type NormalizedDataset struct {
	CanonicalTarget string
	Rows            []map[string]any
}

// Loader parses a pack directory's manifest and normalized datasets. It
// is the only suspension point in PACK_LOAD.
type Loader interface {
	LoadManifest(ctx context.Context, packDir string) (Manifest, error)
	LoadDatasets(ctx context.Context, packDir string, files []FileDescriptor) ([]NormalizedDataset, error)
}

// DocxRenderer fills the PSUR template with the final computation
// context and returns the rendered bytes. The only suspension point in
// RENDER_DOCX (alongside ChartRenderer).
type DocxRenderer interface {
	Render(ctx context.Context, templateID string, sections []any, tables []any) ([]byte, error)
}

// ChartRenderer produces the trend chart image referenced by the
// rendered document.
type ChartRenderer interface {
	RenderTrendChart(ctx context.Context, monthlySeries []any) ([]byte, error)
}

// ZipPackager bundles the rendered outputs and audit artifacts into a
// single deflate-level-9 ZIP. The only suspension point in
// EXPORT_BUNDLE apart from the filesystem writes themselves.
type ZipPackager interface {
	Package(ctx context.Context, files map[string][]byte) ([]byte, error)
}
