package exporter

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/exportdesk/api/internal/model"
	"github.com/exportdesk/api/internal/scheduler"
)

// DefaultStepDelay is how long the simulator spends on each pipeline step.
const DefaultStepDelay = 500 * time.Millisecond

type pipelineStep struct {
	fraction float64
	step     string
}

// Per-format pipelines. Actual encoding is the responsibility of a real
// export backend; the simulator only reproduces its observable behavior.
var pipelines = map[model.ExportFormat][]pipelineStep{
	model.FormatCSV: {
		{0.15, "Collecting rows..."},
		{0.55, "Writing CSV records..."},
		{0.90, "Flushing output..."},
	},
	model.FormatJSON: {
		{0.20, "Collecting records..."},
		{0.60, "Encoding JSON..."},
		{0.90, "Flushing output..."},
	},
	model.FormatXLSX: {
		{0.10, "Collecting rows..."},
		{0.35, "Building worksheets..."},
		{0.70, "Applying cell styles..."},
		{0.90, "Compressing workbook..."},
	},
	model.FormatPDF: {
		{0.10, "Collecting content..."},
		{0.40, "Laying out pages..."},
		{0.75, "Rendering pages..."},
		{0.90, "Embedding fonts..."},
	},
}

// Simulator is an Exporter that fakes export work with timed progress
// steps, honoring cancellation between steps.
type Simulator struct {
	stepDelay time.Duration
}

// NewSimulator creates a Simulator. A zero stepDelay uses DefaultStepDelay.
func NewSimulator(stepDelay time.Duration) *Simulator {
	if stepDelay <= 0 {
		stepDelay = DefaultStepDelay
	}
	return &Simulator{stepDelay: stepDelay}
}

// Export walks the format's pipeline, reporting progress after each step,
// and fabricates a download URL for the produced file.
func (s *Simulator) Export(ctx context.Context, job model.ExportJob, report scheduler.ProgressFunc) (string, error) {
	steps, ok := pipelines[job.Format]
	if !ok {
		return "", fmt.Errorf("unsupported export format %q", job.Format)
	}

	log.Printf("Starting %s export job %s", job.Format, job.ID)

	for _, step := range steps {
		select {
		case <-ctx.Done():
			log.Printf("Export job %s stopped", job.ID)
			return "", ctx.Err()
		case <-time.After(s.stepDelay):
		}
		report(step.fraction, step.step)
	}

	fileID := uuid.New().String()
	url := fmt.Sprintf("https://cdn.exportdesk.io/exports/%s.%s", fileID, job.Format)

	log.Printf("Export job %s completed: %s", job.ID, url)
	return url, nil
}
