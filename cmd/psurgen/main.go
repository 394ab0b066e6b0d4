// Command psurgen is the thin CLI wrapper around the PSUR generation
// pipeline: it resolves a TaskConfig, wires the (currently file-backed)
// collaborator implementations, runs the DAG to completion, and writes
// the resulting bundle to the configured output directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/anthropics/anthropic-sdk-go"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"

	"github.com/certen-health/psurgen/internal/config"
	"github.com/certen-health/psurgen/pkg/psur/llm"
	"github.com/certen-health/psurgen/pkg/psur/pipeline"
	"github.com/certen-health/psurgen/pkg/psur/store"
)

func main() {
	configPath := flag.String("config", "", "path to a TaskConfig YAML file (optional; env vars take precedence)")
	flag.Parse()

	zapLogger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "psurgen: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	logger := zapr.NewLogger(zapLogger)

	if err := run(*configPath, logger); err != nil {
		logger.Error(err, "psurgen run failed")
		os.Exit(1)
	}
}

func run(configPath string, logger logr.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	enhancer, err := buildEnhancer()
	if err != nil {
		return err
	}

	collabs := pipeline.Collaborators{
		Loader:        newJSONPackLoader(),
		DocxRenderer:  plaintextDocxRenderer{},
		ChartRenderer: svgTrendChartRenderer{},
		ZipPackager:   flatZipPackager{},
		Enhancer:      enhancer,
	}

	rt := pipeline.NewRuntime(
		pipeline.NewTaskConfig(cfg.PackDir, cfg.CaseID, cfg.OutputDir, cfg.TemplateID),
		os.Getenv("PSURGEN_CASE_START"),
		os.Getenv("PSURGEN_CASE_END"),
		collabs,
		logger,
	)

	results, runErr := rt.Run(context.Background())
	if runErr != nil {
		return runErr
	}

	bundleVal, err := rt.Store.Get(store.KindZipBundle, "bundle")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("psurgen: failed to create output dir: %w", err)
	}

	outPath := filepath.Join(cfg.OutputDir, cfg.CaseID+".psur.zip")
	if err := os.WriteFile(outPath, bundleVal.([]byte), 0o644); err != nil {
		return fmt.Errorf("psurgen: failed to write bundle: %w", err)
	}

	logger.Info("run complete", "tasks", len(results), "output", outPath)
	return nil
}

func buildEnhancer() (llm.Enhancer, error) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		model := os.Getenv("PSURGEN_ANTHROPIC_MODEL")
		if model == "" {
			model = "claude-sonnet-4-5"
		}
		return llm.NewAnthropicAdapter(key, anthropic.Model(model)), nil
	}

	if modelID := os.Getenv("PSURGEN_BEDROCK_MODEL_ID"); modelID != "" {
		region := os.Getenv("PSURGEN_BEDROCK_REGION")
		if region == "" {
			region = "us-east-1"
		}
		cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
		if err != nil {
			return nil, fmt.Errorf("psurgen: failed to load AWS config for Bedrock: %w", err)
		}
		client := bedrockruntime.NewFromConfig(cfg)
		return llm.NewBedrockAdapter(client, modelID, region), nil
	}

	return nil, fmt.Errorf("psurgen: no LLM provider configured (set ANTHROPIC_API_KEY or PSURGEN_BEDROCK_MODEL_ID)")
}
