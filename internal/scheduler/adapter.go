package scheduler

import (
	"context"

	"github.com/exportdesk/api/internal/model"
)

// ProgressFunc reports export progress as a fraction in [0, 1] plus a
// human-readable step label. Safe to call from the exporter's goroutine.
type ProgressFunc func(fraction float64, step string)

// Exporter performs the actual export work for one job. The scheduler
// treats it as an opaque, cancellable operation: it must honor ctx
// cancellation promptly and return exactly once. A nil error means the
// export completed and outputURL points at the produced file.
type Exporter interface {
	Export(ctx context.Context, job model.ExportJob, report ProgressFunc) (outputURL string, err error)
}

// Notifier receives change notifications for the tracked job list.
// Implementations must not block; the scheduler invokes these while
// holding its internal lock to preserve update ordering.
type Notifier interface {
	JobAdded(job model.ExportJob)
	JobUpdated(job model.ExportJob)
	JobRemoved(jobID string)
}

// Archiver persists a snapshot of a job that reached a terminal state.
// Best effort only: failures must not affect the scheduler.
type Archiver interface {
	Archive(ctx context.Context, job model.ExportJob)
}
