package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/exportdesk/api/internal/model"
)

// ErrJobNotFound is returned when an operation references an unknown job id.
var ErrJobNotFound = errors.New("job not found")

// DefaultRetentionWindow is how long a finished job stays in the tracked
// list before auto-eviction, unless configured otherwise.
const DefaultRetentionWindow = 5 * time.Minute

// Options configures a TaskScheduler.
type Options struct {
	// ConcurrencyLimit is the maximum number of jobs running at once.
	// Values below 1 are treated as 1.
	ConcurrencyLimit int

	// RetentionWindow is how long terminal jobs are kept before
	// auto-eviction. Zero means DefaultRetentionWindow.
	RetentionWindow time.Duration

	// AutoEvict enables the per-job retention timer.
	AutoEvict bool

	Exporter Exporter
	Notifier Notifier // optional
	Archiver Archiver // optional
}

// TaskScheduler owns the export job collection and drives every job
// through its lifecycle. All state lives behind a single mutex; exporters
// run on their own goroutines (at most ConcurrencyLimit of them) and feed
// results back through reportProgress/reportDone, which serialize under
// the same mutex. Jobs are admitted strictly in submission order.
type TaskScheduler struct {
	mu      sync.Mutex
	jobs    []*model.ExportJob          // insertion order, also display order
	index   map[string]*model.ExportJob // id -> job
	running map[string]context.CancelFunc
	timers  map[string]*time.Timer // pending retention evictions

	limit     int
	retention time.Duration
	autoEvict bool

	exporter Exporter
	notifier Notifier
	archiver Archiver

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup
}

// New creates a TaskScheduler. opts.Exporter is required.
func New(opts Options) *TaskScheduler {
	limit := opts.ConcurrencyLimit
	if limit < 1 {
		limit = 1
	}
	retention := opts.RetentionWindow
	if retention <= 0 {
		retention = DefaultRetentionWindow
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &TaskScheduler{
		index:      make(map[string]*model.ExportJob),
		running:    make(map[string]context.CancelFunc),
		timers:     make(map[string]*time.Timer),
		limit:      limit,
		retention:  retention,
		autoEvict:  opts.AutoEvict,
		exporter:   opts.Exporter,
		notifier:   opts.Notifier,
		archiver:   opts.Archiver,
		baseCtx:    ctx,
		baseCancel: cancel,
	}
}

// Submit registers a new export job and returns its record. Submission
// never fails; payload problems surface later as a failed job.
func (s *TaskScheduler) Submit(req *model.ExportSubmitRequest) model.ExportJob {
	name := req.Name
	if name == "" {
		name = fmt.Sprintf("%s Export", strings.ToUpper(string(req.Format)))
	}

	job := &model.ExportJob{
		ID:        uuid.New().String(),
		Name:      name,
		Format:    req.Format,
		Status:    model.JobStatusWaiting,
		Payload:   req.Payload,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, job)
	s.index[job.ID] = job
	if s.notifier != nil {
		s.notifier.JobAdded(*job)
	}

	// Snapshot before admission so callers see the job as submitted;
	// admission may promote it to running within this same call.
	submitted := *job
	s.admitLocked()

	return submitted
}

// Cancel stops a job. Waiting jobs become cancelled immediately; running
// jobs free their slot immediately while the exporter is signalled to stop
// fire-and-forget. Cancelling an already-terminal job is a no-op.
func (s *TaskScheduler) Cancel(jobID string) (model.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.index[jobID]
	if !ok {
		return model.ExportJob{}, ErrJobNotFound
	}
	if job.Terminal() {
		return *job, nil
	}

	s.cancelLocked(job)
	s.admitLocked()
	return *job, nil
}

// CancelAll cancels every non-terminal job, in insertion order.
func (s *TaskScheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		if !job.Terminal() {
			s.cancelLocked(job)
		}
	}
	s.admitLocked()
}

// ClearFinished removes every terminal job regardless of its retention
// timer and returns how many were removed. Waiting and running jobs keep
// their positions.
func (s *TaskScheduler) ClearFinished() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	keep := make([]*model.ExportJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		if !job.Terminal() {
			keep = append(keep, job)
			continue
		}
		if t, ok := s.timers[job.ID]; ok {
			t.Stop()
			delete(s.timers, job.ID)
		}
		delete(s.index, job.ID)
		if s.notifier != nil {
			s.notifier.JobRemoved(job.ID)
		}
		removed++
	}
	s.jobs = keep
	return removed
}

// Get returns a snapshot of one job.
func (s *TaskScheduler) Get(jobID string) (model.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.index[jobID]
	if !ok {
		return model.ExportJob{}, ErrJobNotFound
	}
	return *job, nil
}

// Jobs returns a snapshot of the tracked list in insertion order.
func (s *TaskScheduler) Jobs() []model.ExportJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.ExportJob, len(s.jobs))
	for i, job := range s.jobs {
		out[i] = *job
	}
	return out
}

// ActiveCount returns the number of running jobs.
func (s *TaskScheduler) ActiveCount() int {
	return s.countByStatus(model.JobStatusRunning)
}

// WaitingCount returns the number of jobs not yet admitted.
func (s *TaskScheduler) WaitingCount() int {
	return s.countByStatus(model.JobStatusWaiting)
}

// FinishedCount returns the number of terminal jobs still tracked.
func (s *TaskScheduler) FinishedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, job := range s.jobs {
		if job.Terminal() {
			n++
		}
	}
	return n
}

// Shutdown cancels all outstanding jobs and waits for exporter goroutines
// to return, bounded by ctx.
func (s *TaskScheduler) Shutdown(ctx context.Context) error {
	s.CancelAll()
	s.baseCancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *TaskScheduler) countByStatus(status model.JobStatus) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, job := range s.jobs {
		if job.Status == status {
			n++
		}
	}
	return n
}

// admitLocked promotes waiting jobs to running until the ceiling is hit
// or nothing is waiting. FIFO over insertion order, no other key.
func (s *TaskScheduler) admitLocked() {
	for len(s.running) < s.limit {
		var next *model.ExportJob
		for _, job := range s.jobs {
			if job.Status == model.JobStatusWaiting {
				next = job
				break
			}
		}
		if next == nil {
			return
		}
		s.startLocked(next)
	}
}

func (s *TaskScheduler) startLocked(job *model.ExportJob) {
	now := time.Now()
	job.Status = model.JobStatusRunning
	job.StartedAt = &now
	job.CurrentStep = "Starting export..."

	ctx, cancel := context.WithCancel(s.baseCtx)
	s.running[job.ID] = cancel

	if s.notifier != nil {
		s.notifier.JobUpdated(*job)
	}

	snapshot := *job
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		outputURL, err := s.exporter.Export(ctx, snapshot, func(fraction float64, step string) {
			s.reportProgress(snapshot.ID, fraction, step)
		})
		s.reportDone(snapshot.ID, outputURL, err)
	}()
}

// reportProgress applies a progress update from an exporter. Updates for
// jobs that are no longer running are discarded, and progress never moves
// backwards.
func (s *TaskScheduler) reportProgress(jobID string, fraction float64, step string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.index[jobID]
	if !ok || job.Status != model.JobStatusRunning {
		return
	}
	if fraction > 1.0 {
		fraction = 1.0
	}
	if fraction > job.Progress {
		job.Progress = fraction
	}
	if step != "" {
		job.CurrentStep = step
	}
	if s.notifier != nil {
		s.notifier.JobUpdated(*job)
	}
}

// reportDone applies an exporter's terminal outcome. If the job's slot was
// already released (cancelled while running) the result is late and is
// discarded; terminal states are absorbing.
func (s *TaskScheduler) reportDone(jobID string, outputURL string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cancel, ok := s.running[jobID]
	if !ok {
		return
	}
	delete(s.running, jobID)
	cancel()

	job, present := s.index[jobID]
	if !present || job.Terminal() {
		s.admitLocked()
		return
	}

	if err != nil {
		msg := err.Error()
		job.Error = &msg
		job.CurrentStep = ""
		s.finishLocked(job, model.JobStatusFailed)
	} else {
		job.Progress = 1.0
		job.OutputURL = outputURL
		job.CurrentStep = ""
		s.finishLocked(job, model.JobStatusCompleted)
	}
	s.admitLocked()
}

// cancelLocked transitions one non-terminal job to cancelled. If the job
// holds a slot it is released here, before the exporter has observed the
// stop signal; the exporter's eventual result is discarded by reportDone.
func (s *TaskScheduler) cancelLocked(job *model.ExportJob) {
	if cancel, ok := s.running[job.ID]; ok {
		delete(s.running, job.ID)
		cancel()
	}
	job.CurrentStep = ""
	s.finishLocked(job, model.JobStatusCancelled)
}

// finishLocked stamps the terminal state, arms the retention timer, and
// hands the final record to the archiver and notifier.
func (s *TaskScheduler) finishLocked(job *model.ExportJob, status model.JobStatus) {
	now := time.Now()
	job.Status = status
	job.FinishedAt = &now

	if s.autoEvict {
		id := job.ID
		s.timers[id] = time.AfterFunc(s.retention, func() {
			s.evict(id)
		})
	}

	if s.archiver != nil {
		// Off the lock: the archiver may hit the network.
		snapshot := *job
		go s.archiver.Archive(s.baseCtx, snapshot)
	}
	if s.notifier != nil {
		s.notifier.JobUpdated(*job)
	}
}

// evict removes a terminal job after its retention window. The job may
// already be gone if ClearFinished ran first; ids are never reused, so a
// stale timer can never remove a different job.
func (s *TaskScheduler) evict(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.timers, jobID)
	job, ok := s.index[jobID]
	if !ok {
		return
	}
	if !job.Terminal() {
		log.Printf("retention timer fired for non-terminal job %s, skipping", jobID)
		return
	}

	delete(s.index, jobID)
	for i, j := range s.jobs {
		if j.ID == jobID {
			s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
			break
		}
	}
	if s.notifier != nil {
		s.notifier.JobRemoved(jobID)
	}
}
