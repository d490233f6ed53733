// Package jobs renders label sheets in the background with retry
package jobs

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/mkjmk-alt/label-engine/internal/renderer"
	"github.com/mkjmk-alt/label-engine/pkg/labelformat"
)

// Job statuses
const (
	StatusQueued    = "queued"
	StatusRendering = "rendering"
	StatusFailed    = "failed"
	StatusCompleted = "completed"
)

// Job is one sheet rendering request
type Job struct {
	ID        string
	Sheet     *labelformat.Sheet
	Pages     []string // Rendered PNG paths, set on completion
	Retries   int
	Status    string
	Error     error
	CreatedAt time.Time
}

// Event is a job status change, consumed by the websocket layer and TUI
type Event struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Queue manages render jobs with retry logic
type Queue struct {
	jobs       []*Job
	mu         sync.Mutex
	renderer   *renderer.Renderer
	outputDir  string
	maxRetries int
	events     chan Event
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewQueue creates a render queue and starts its worker
func NewQueue(r *renderer.Renderer, outputDir string, maxRetries int) *Queue {
	ctx, cancel := context.WithCancel(context.Background())

	q := &Queue{
		jobs:       make([]*Job, 0),
		renderer:   r,
		outputDir:  outputDir,
		maxRetries: maxRetries,
		events:     make(chan Event, 64),
		ctx:        ctx,
		cancel:     cancel,
	}

	q.wg.Add(1)
	go q.worker()

	return q
}

// Enqueue adds a render job to the queue
func (q *Queue) Enqueue(sheet *labelformat.Sheet) string {
	q.mu.Lock()
	defer q.mu.Unlock()

	job := &Job{
		ID:        fmt.Sprintf("job_%d", time.Now().UnixNano()),
		Sheet:     sheet,
		Status:    StatusQueued,
		CreatedAt: time.Now(),
	}

	q.jobs = append(q.jobs, job)
	q.emit(Event{JobID: job.ID, Status: StatusQueued})

	return job.ID
}

// Events returns the job status event stream
func (q *Queue) Events() <-chan Event {
	return q.events
}

// OutputDir returns the directory rendered pages are written to
func (q *Queue) OutputDir() string {
	return q.outputDir
}

// worker processes render jobs
func (q *Queue) worker() {
	defer q.wg.Done()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			q.processNextJob()
		}
	}
}

func (q *Queue) processNextJob() {
	q.mu.Lock()

	var job *Job
	for _, j := range q.jobs {
		if j.Status == StatusQueued {
			job = j
			job.Status = StatusRendering
			break
		}
	}

	q.mu.Unlock()

	if job == nil {
		return
	}

	q.emit(Event{JobID: job.ID, Status: StatusRendering})

	pages, err := q.renderJob(job)

	q.mu.Lock()
	defer q.mu.Unlock()

	if err != nil {
		job.Retries++
		job.Error = err

		if job.Retries >= q.maxRetries {
			job.Status = StatusFailed
			log.Printf("Render job %s failed after %d retries: %v", job.ID, job.Retries, err)
		} else {
			job.Status = StatusQueued
			log.Printf("Render job %s failed, retrying (%d/%d): %v",
				job.ID, job.Retries, q.maxRetries, err)
		}
		q.emit(Event{JobID: job.ID, Status: job.Status, Error: err.Error()})
	} else {
		job.Pages = pages
		job.Status = StatusCompleted
		log.Printf("Render job %s completed, %d page(s)", job.ID, len(pages))
		q.emit(Event{JobID: job.ID, Status: StatusCompleted})
	}
}

// renderJob renders every copy of the sheet to a PNG in the output dir
func (q *Queue) renderJob(job *Job) ([]string, error) {
	page, err := q.renderer.RenderPage(job.Sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to render sheet: %w", err)
	}

	copies := job.Sheet.Copies
	if copies < 1 {
		copies = 1
	}

	pages := make([]string, 0, copies)
	for i := 0; i < copies; i++ {
		path := filepath.Join(q.outputDir, fmt.Sprintf("%s_page_%d.png", job.ID, i+1))
		if err := imaging.Save(page, path); err != nil {
			return nil, fmt.Errorf("failed to save page %d: %w", i+1, err)
		}
		pages = append(pages, path)
	}

	return pages, nil
}

// emit delivers an event without ever blocking the worker
func (q *Queue) emit(ev Event) {
	select {
	case q.events <- ev:
	default:
	}
}

// GetJob returns a job by ID
func (q *Queue) GetJob(jobID string) *Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, job := range q.jobs {
		if job.ID == jobID {
			jobCopy := *job
			return &jobCopy
		}
	}

	return nil
}

// GetAllJobs returns all jobs
func (q *Queue) GetAllJobs() []*Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	jobs := make([]*Job, len(q.jobs))
	for i, job := range q.jobs {
		jobCopy := *job
		jobs[i] = &jobCopy
	}

	return jobs
}

// ClearCompleted removes completed jobs from the queue
func (q *Queue) ClearCompleted() {
	q.mu.Lock()
	defer q.mu.Unlock()

	filtered := make([]*Job, 0)
	for _, job := range q.jobs {
		if job.Status != StatusCompleted {
			filtered = append(filtered, job)
		}
	}

	q.jobs = filtered
}

// Stop stops the queue worker and closes the event stream
func (q *Queue) Stop() {
	q.cancel()
	q.wg.Wait()
	close(q.events)
}
