package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/certen-health/psurgen/pkg/psur/collaborators"
	"github.com/certen-health/psurgen/pkg/psur/llm"
	"github.com/certen-health/psurgen/pkg/psur/pipeline"
	"github.com/certen-health/psurgen/pkg/psur/store"
)

func TestPipeline(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "pipeline suite")
}

type fakeLoader struct {
	manifest      collaborators.Manifest
	datasets      []collaborators.NormalizedDataset
	manifestError error
}

func (f fakeLoader) LoadManifest(ctx context.Context, packDir string) (collaborators.Manifest, error) {
	if f.manifestError != nil {
		return collaborators.Manifest{}, f.manifestError
	}
	return f.manifest, nil
}

func (f fakeLoader) LoadDatasets(ctx context.Context, packDir string, files []collaborators.FileDescriptor) ([]collaborators.NormalizedDataset, error) {
	return f.datasets, nil
}

type fakeEnhancer struct{}

func (fakeEnhancer) Enhance(ctx context.Context, req llm.EnhanceRequest) (llm.EnhanceResult, error) {
	requestID := "req-" + req.SectionID + "-live"
	return llm.EnhanceResult{
		Provider:          "anthropic",
		Model:             "claude-test",
		CorrelationID:     req.CorrelationID,
		ProviderRequestID: requestID,
		SectionID:         req.SectionID,
		EnhancedNarrative: req.Narrative,
		InputTokens:       10,
		OutputTokens:      20,
		LatencyMs:         5,
		TransportProof: llm.TransportProof{
			SDK:                 "anthropic-sdk-go",
			EndpointHost:        "api.anthropic.com",
			HTTPStatus:          200,
			ProviderRequestID:   requestID,
			ResponseHeadersHash: "fakehash",
		},
	}, nil
}

type fakeDocx struct{}

func (fakeDocx) Render(ctx context.Context, templateID string, sections []any, tables []any) ([]byte, error) {
	return []byte("docx-bytes"), nil
}

type fakeChart struct{}

func (fakeChart) RenderTrendChart(ctx context.Context, monthlySeries []any) ([]byte, error) {
	return []byte("chart-bytes"), nil
}

type fakeZip struct{}

func (fakeZip) Package(ctx context.Context, files map[string][]byte) ([]byte, error) {
	return []byte("zip-bytes"), nil
}

func sampleManifest() collaborators.Manifest {
	return collaborators.Manifest{
		DeviceName:     "Acme Infusion Pump",
		DeviceModel:    "IP-200",
		Manufacturer:   "Acme Medical",
		CaseStart:      "2023-01-01",
		CaseEnd:        "2023-02-28",
		RegulatoryRefs: []string{"MDR 2017/745"},
		Files: []collaborators.FileDescriptor{
			{FileName: "device_master.json", CanonicalTarget: "device_master", SHA256: "h0"},
			{FileName: "sales_exposure.json", CanonicalTarget: "sales_exposure", SHA256: "h1"},
			{FileName: "complaints.json", CanonicalTarget: "complaints", SHA256: "h2"},
			{FileName: "serious_incidents.json", CanonicalTarget: "serious_incidents", SHA256: "h3"},
			{FileName: "capa.json", CanonicalTarget: "capa", SHA256: "h4"},
			{FileName: "fsca.json", CanonicalTarget: "fsca", SHA256: "h5"},
			{FileName: "literature.json", CanonicalTarget: "literature", SHA256: "h6"},
			{FileName: "pmcf.json", CanonicalTarget: "pmcf", SHA256: "h7"},
			{FileName: "risk_summary.json", CanonicalTarget: "risk_summary", SHA256: "h8"},
		},
	}
}

func sampleDatasets() []collaborators.NormalizedDataset {
	return []collaborators.NormalizedDataset{
		{CanonicalTarget: "device_master", Rows: []map[string]any{}},
		{CanonicalTarget: "sales_exposure", Rows: []map[string]any{
			{"period": "2023-01", "country": "DE", "units": 1000.0},
			{"period": "2023-02", "country": "DE", "units": 1200.0},
		}},
		{CanonicalTarget: "complaints", Rows: []map[string]any{
			{"id": "C1", "date": "2023-01-10", "country": "DE", "serious": false, "reportable": false, "problemCode": "PC1", "harmCode": "H1", "rootCause": "wear"},
			{"id": "C2", "date": "2023-02-12", "country": "DE", "serious": true, "reportable": true, "problemCode": "PC2", "harmCode": "H2", "rootCause": ""},
		}},
		{CanonicalTarget: "serious_incidents", Rows: []map[string]any{
			{"id": "I1", "country": "DE", "severity": "high"},
		}},
		{CanonicalTarget: "capa", Rows: []map[string]any{
			{"id": "CAPA-1", "status": "closed", "openedAt": "2023-01-01", "closedAt": "2023-01-15"},
		}},
		{CanonicalTarget: "fsca", Rows: []map[string]any{}},
		{CanonicalTarget: "literature", Rows: []map[string]any{}},
		{CanonicalTarget: "pmcf", Rows: []map[string]any{}},
		{CanonicalTarget: "risk_summary", Rows: []map[string]any{
			{"id": "R1", "level": "LOW", "conclusion": "favorable"},
		}},
	}
}

func newTestRuntime(loader collaborators.Loader) *pipeline.Runtime {
	collabs := pipeline.Collaborators{
		Loader:        loader,
		DocxRenderer:  fakeDocx{},
		ChartRenderer: fakeChart{},
		ZipPackager:   fakeZip{},
		Enhancer:      fakeEnhancer{},
	}
	cfg := pipeline.NewTaskConfig("/tmp/pack", "CASE-1", "/tmp/out", "template-a")
	return pipeline.NewRuntime(cfg, "2023-01-01", "2023-02-28", collabs, logr.Discard())
}

var _ = Describe("Runtime", func() {
	It("runs every task to completion and produces a validated, hash-chained export", func() {
		rt := newTestRuntime(fakeLoader{manifest: sampleManifest(), datasets: sampleDatasets()})

		results, err := rt.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		for _, t := range []pipeline.TaskType{
			pipeline.TaskPackLoad, pipeline.TaskEvidenceIngest, pipeline.TaskNormalizeDatasets,
			pipeline.TaskQualifyData, pipeline.TaskReconcile, pipeline.TaskComputeMetrics,
			pipeline.TaskBuildAnnexTables, pipeline.TaskGenerateSections, pipeline.TaskLLMEnhanceSections,
			pipeline.TaskValidatePSUR, pipeline.TaskRenderDocx, pipeline.TaskExportBundle,
			pipeline.TaskVerifyTraceChain,
		} {
			Expect(results[t].Status).To(Equal(pipeline.StatusSuccess), string(t))
		}

		report := rt.Recorder.ValidateChain()
		Expect(report.Valid).To(BeTrue(), report.Errors)

		bundle, err := rt.Store.Get(store.KindZipBundle, "bundle")
		Expect(err).NotTo(HaveOccurred())
		Expect(bundle.([]byte)).To(Equal([]byte("zip-bytes")))

		Expect(rt.Context.Sections).To(HaveLen(12))
		Expect(rt.Context.AnnexTables).To(HaveLen(12))
	})

	It("skips every downstream task once PACK_LOAD fails", func() {
		rt := newTestRuntime(fakeLoader{manifestError: errors.New("disk unavailable")})

		results, err := rt.Run(context.Background())
		Expect(err).To(HaveOccurred())

		Expect(results[pipeline.TaskPackLoad].Status).To(Equal(pipeline.StatusFailed))
		Expect(results[pipeline.TaskEvidenceIngest].Status).To(Equal(pipeline.StatusSkipped))
		Expect(results[pipeline.TaskNormalizeDatasets].Status).To(Equal(pipeline.StatusSkipped))
		Expect(results[pipeline.TaskVerifyTraceChain].Status).To(Equal(pipeline.StatusSkipped))
	})
})

var _ = Describe("TopologicalOrder", func() {
	It("places every dependency before its dependents", func() {
		order, err := pipeline.TopologicalOrder()
		Expect(err).NotTo(HaveOccurred())
		Expect(order).To(HaveLen(13))

		position := make(map[pipeline.TaskType]int, len(order))
		for i, t := range order {
			position[t] = i
		}

		Expect(position[pipeline.TaskPackLoad]).To(BeNumerically("<", position[pipeline.TaskEvidenceIngest]))
		Expect(position[pipeline.TaskComputeMetrics]).To(BeNumerically("<", position[pipeline.TaskBuildAnnexTables]))
		Expect(position[pipeline.TaskValidatePSUR]).To(BeNumerically("<", position[pipeline.TaskRenderDocx]))
		Expect(position[pipeline.TaskExportBundle]).To(BeNumerically("<", position[pipeline.TaskVerifyTraceChain]))
	})
})
