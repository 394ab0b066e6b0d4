package pipeline

import (
	"context"
	"fmt"
	"time"

	gofaster "github.com/go-faster/errors"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	apperrors "github.com/certen-health/psurgen/internal/errors"
	"github.com/certen-health/psurgen/pkg/psur/collaborators"
	"github.com/certen-health/psurgen/pkg/psur/llm"
	"github.com/certen-health/psurgen/pkg/psur/pctx"
	"github.com/certen-health/psurgen/pkg/psur/store"
	"github.com/certen-health/psurgen/pkg/psur/trace"
)

// Status is the terminal state of one task execution.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// InputBundle is the per-task invocation envelope: identity, correlation,
// and the store references the task is entitled to read. Tasks never see
// each other's Go types directly; they agree only on the store and this
// envelope.
type InputBundle struct {
	TaskType      TaskType
	TaskID        string
	CorrelationID string
	InputRefs     []store.Ref
}

// TaskResult is the tagged outcome of one task execution.
type TaskResult struct {
	TaskType TaskType
	Status   Status
	Output   any
	Error    error
	Reason   string // set when Status is Skipped
}

// Collaborators bundles every external-collaborator dependency the
// runtime suspends into. A caller assembles these from its own
// production or test doubles; the pipeline never constructs one itself.
type Collaborators struct {
	Loader        collaborators.Loader
	DocxRenderer  collaborators.DocxRenderer
	ChartRenderer collaborators.ChartRenderer
	ZipPackager   collaborators.ZipPackager
	Enhancer      llm.Enhancer
}

// Runtime is the single-threaded executor for one run: one store, one
// recorder, one computation context, and the external collaborators for
// that run's duration.
type Runtime struct {
	Config   taskConfig
	Store    *store.Store
	Recorder *trace.Recorder
	Context  *pctx.Context

	collaborators Collaborators
	breakers      map[string]*gobreaker.CircuitBreaker[any]
	metrics       *Metrics
	logger        logr.Logger
	tracer        oteltrace.Tracer
}

// taskConfig is the subset of internal/config.TaskConfig the pipeline
// needs; declared locally so this package does not import internal/config
// (the config package instead is consumed by cmd/psurgen, which wires a
// Runtime from it).
type taskConfig struct {
	PackDir    string
	CaseID     string
	OutputDir  string
	TemplateID string
}

// NewTaskConfig builds the pipeline-facing config subset.
func NewTaskConfig(packDir, caseID, outputDir, templateID string) taskConfig {
	return taskConfig{PackDir: packDir, CaseID: caseID, OutputDir: outputDir, TemplateID: templateID}
}

// NewRuntime builds a Runtime ready to execute one run. caseStart/caseEnd
// seed the computation context; the manifest's own bounds (once loaded)
// are authoritative and overwrite these if they differ.
func NewRuntime(cfg taskConfig, caseStart, caseEnd string, collabs Collaborators, logger logr.Logger) *Runtime {
	return &Runtime{
		Config:        cfg,
		Store:         store.New(),
		Recorder:      trace.NewRecorder(),
		Context:       pctx.New(cfg.CaseID, caseStart, caseEnd),
		collaborators: collabs,
		breakers:      newBreakers(),
		metrics:       NewMetrics(),
		logger:        logger,
		tracer:        otel.Tracer("psurgen/pipeline"),
	}
}

// Run executes every task in topological order, short-circuiting
// downstream tasks once a dependency fails or is itself skipped.
func (r *Runtime) Run(ctx context.Context) (map[TaskType]TaskResult, error) {
	order, err := TopologicalOrder()
	if err != nil {
		return nil, gofaster.Wrap(err, "pipeline: failed to compute task order")
	}

	results := make(map[TaskType]TaskResult, len(order))

	for _, t := range order {
		if reason, blocked := r.blockedBy(t, results); blocked {
			results[t] = TaskResult{TaskType: t, Status: StatusSkipped, Reason: reason}
			r.metrics.observe(ctx, t, StatusSkipped, 0)
			continue
		}

		results[t] = r.runOne(ctx, t)
	}

	for _, t := range order {
		if results[t].Status == StatusFailed {
			return results, gofaster.Wrap(results[t].Error, fmt.Sprintf("pipeline: task %s failed", t))
		}
	}

	return results, nil
}

func (r *Runtime) blockedBy(t TaskType, results map[TaskType]TaskResult) (string, bool) {
	for _, dep := range dependencies[t] {
		dr := results[dep]
		if dr.Status != StatusSuccess {
			return fmt.Sprintf("dependency %s did not succeed (%s)", dep, dr.Status), true
		}
	}
	return "", false
}

func (r *Runtime) runOne(ctx context.Context, t TaskType) TaskResult {
	ctx, span := r.tracer.Start(ctx, string(t))
	defer span.End()

	start := time.Now()
	chainBefore := r.Recorder.Len()
	bundle := InputBundle{
		TaskType:      t,
		TaskID:        uuid.NewString(),
		CorrelationID: r.Config.CaseID,
	}

	fn, ok := taskRegistry[t]
	if !ok {
		err := apperrors.UnknownTaskType(string(t))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return TaskResult{TaskType: t, Status: StatusFailed, Error: err}
	}

	output, err := fn(ctx, r, bundle)
	elapsed := time.Since(start)

	if err == nil && emitsDTR(t) && r.Recorder.Len() == chainBefore {
		r.logger.Info("task declared as DTR-emitting recorded none", "task", t, "taskId", bundle.TaskID)
	}

	status := StatusSuccess
	if err != nil {
		status = StatusFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error(err, "task failed", "task", t, "taskId", bundle.TaskID)
	} else {
		r.logger.V(1).Info("task completed", "task", t, "taskId", bundle.TaskID, "durationMs", elapsed.Milliseconds())
	}

	r.metrics.observe(ctx, t, status, elapsed.Seconds())

	return TaskResult{TaskType: t, Status: status, Output: output, Error: err}
}

type taskFunc func(ctx context.Context, r *Runtime, in InputBundle) (any, error)

var taskRegistry = map[TaskType]taskFunc{
	TaskPackLoad:           runPackLoad,
	TaskEvidenceIngest:     runEvidenceIngest,
	TaskNormalizeDatasets:  runNormalizeDatasets,
	TaskQualifyData:        runQualifyData,
	TaskReconcile:          runReconcile,
	TaskComputeMetrics:     runComputeMetrics,
	TaskBuildAnnexTables:   runBuildAnnexTables,
	TaskGenerateSections:   runGenerateSections,
	TaskLLMEnhanceSections: runLLMEnhanceSections,
	TaskValidatePSUR:       runValidatePSUR,
	TaskRenderDocx:         runRenderDocx,
	TaskExportBundle:       runExportBundle,
	TaskVerifyTraceChain:   runVerifyTraceChain,
}

// record is a thin wrapper around Recorder.Record that stamps
// InitiatedAt/CompletedAt and the run's trace/case identifiers, used by
// every task that emits exactly one DTR.
func (r *Runtime) record(traceType trace.Type, initiated time.Time, f trace.Fields) trace.DTR {
	f.TraceID = uuid.NewString()
	f.CaseID = r.Config.CaseID
	f.TraceType = traceType
	f.InitiatedAt = initiated
	f.CompletedAt = time.Now()
	return r.Recorder.Record(f)
}
