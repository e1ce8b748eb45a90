// Package generation dispatches and tracks asynchronous creation jobs
// (video, image, audio). Jobs are independent of the interview flow: starting
// or cancelling an interview, or switching panel modes, never touches a job.
package generation

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// JobsTopic carries job lifecycle updates on the in-process event bus.
const JobsTopic = "generation.jobs"

// AuditSink records job state for audit. Failures are logged, never fatal.
type AuditSink interface {
	Record(ctx context.Context, job Job) error
}

// Update is the event payload published on every job status change.
type Update struct {
	JobID     uuid.UUID  `json:"job_id"`
	SessionID string     `json:"session_id"`
	UserID    string     `json:"user_id"`
	Kind      string     `json:"kind"`
	Status    string     `json:"status"`
	Result    *AssetRef  `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	RetryOf   *uuid.UUID `json:"retry_of,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Orchestrator owns every GenerationJob record. Multiple jobs run
// concurrently; each has its own record and no shared mid-flight state, so
// the only discipline is atomic status updates under the store lock.
type Orchestrator struct {
	client    Client
	publisher message.Publisher // nil disables event publishing
	audit     AuditSink         // nil disables auditing
	logger    *log.Logger

	mu   sync.RWMutex
	jobs map[uuid.UUID]*Job

	// Tuning knobs, overridable in tests
	pollInterval  time.Duration
	pollTimeout   time.Duration
	retryInitial  time.Duration
	submitRetries uint64
}

// NewOrchestrator creates a job orchestrator. publisher and audit may be nil.
func NewOrchestrator(client Client, publisher message.Publisher, audit AuditSink, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		client:        client,
		publisher:     publisher,
		audit:         audit,
		logger:        logger,
		jobs:          make(map[uuid.UUID]*Job),
		pollInterval:  3 * time.Second,
		pollTimeout:   30 * time.Minute,
		retryInitial:  500 * time.Millisecond,
		submitRetries: 4,
	}
}

// Dispatch validates the payload, registers a queued job, and starts the
// submit/poll loop in the background. Returns the new job id immediately.
func (o *Orchestrator) Dispatch(kind string, payload Payload, sessionID, userID, identity string) (uuid.UUID, error) {
	return o.dispatch(kind, payload, sessionID, userID, identity, nil)
}

// Redispatch creates a fresh job from a terminal one. The new record
// references the previous id for audit; the old job is never restarted.
func (o *Orchestrator) Redispatch(jobID uuid.UUID, identity string) (uuid.UUID, error) {
	o.mu.RLock()
	prev, ok := o.jobs[jobID]
	if !ok {
		o.mu.RUnlock()
		return uuid.Nil, ErrJobNotFound
	}
	kind, payload, sessionID, userID := prev.Kind, prev.Payload, prev.SessionID, prev.UserID
	o.mu.RUnlock()

	retryOf := jobID
	return o.dispatch(kind, payload, sessionID, userID, identity, &retryOf)
}

// Status returns a copy of the job record.
func (o *Orchestrator) Status(jobID uuid.UUID) (Job, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	job, ok := o.jobs[jobID]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return *job, nil
}

// SessionJobs returns copies of every job dispatched from a panel session,
// in creation order. Jobs keep running across mode switches and are reported
// here whenever the relevant mode becomes active again.
func (o *Orchestrator) SessionJobs(sessionID string) []Job {
	o.mu.RLock()
	defer o.mu.RUnlock()
	var jobs []Job
	for _, job := range o.jobs {
		if job.SessionID == sessionID {
			jobs = append(jobs, *job)
		}
	}
	sortJobs(jobs)
	return jobs
}

func (o *Orchestrator) dispatch(kind string, payload Payload, sessionID, userID, identity string, retryOf *uuid.UUID) (uuid.UUID, error) {
	if err := ValidatePayload(kind, payload); err != nil {
		return uuid.Nil, err
	}

	now := time.Now()
	job := &Job{
		ID:        uuid.New(),
		SessionID: sessionID,
		UserID:    userID,
		Kind:      kind,
		Payload:   payload,
		Status:    StatusQueued,
		RetryOf:   retryOf,
		CreatedAt: now,
		UpdatedAt: now,
	}

	o.mu.Lock()
	o.jobs[job.ID] = job
	o.mu.Unlock()

	o.logger.Printf("[GENERATION] Dispatched %s job %s (session=%s)", kind, job.ID, sessionID)
	o.notify(*job)

	go o.runJob(job.ID, identity)
	return job.ID, nil
}

// runJob drives one job to a terminal state. It deliberately uses a
// background context: the job outlives the request, the panel session, and
// any mode switch that happens while it is in flight.
func (o *Orchestrator) runJob(jobID uuid.UUID, identity string) {
	job, err := o.Status(jobID)
	if err != nil {
		return
	}

	remoteID, err := o.submitWithRetry(job, identity)
	if err != nil {
		o.logger.Printf("[GENERATION] Job %s submit failed terminally: %v", jobID, err)
		o.transition(jobID, func(j *Job) {
			j.Status = StatusFailed
			j.Error = err.Error()
		})
		return
	}

	o.transition(jobID, func(j *Job) {
		j.Status = StatusRunning
		j.RemoteID = remoteID
	})

	o.pollUntilTerminal(jobID, remoteID)
}

func (o *Orchestrator) submitWithRetry(job Job, identity string) (string, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = o.retryInitial

	var remoteID string
	operation := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		id, err := o.client.Submit(ctx, job.Kind, job.Payload, identity)
		if err != nil {
			if errors.Is(err, ErrCollaboratorUnavailable) {
				o.logger.Printf("[GENERATION] Job %s submit retryable error: %v", job.ID, err)
				return err
			}
			return backoff.Permanent(err)
		}
		remoteID = id
		return nil
	}

	err := backoff.Retry(operation, backoff.WithMaxRetries(policy, o.submitRetries))
	return remoteID, err
}

func (o *Orchestrator) pollUntilTerminal(jobID uuid.UUID, remoteID string) {
	deadline := time.Now().Add(o.pollTimeout)

	for time.Now().Before(deadline) {
		time.Sleep(o.pollInterval)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		report, err := o.client.Poll(ctx, remoteID)
		cancel()
		if err != nil {
			// Poll errors are transient by definition; the job is still
			// running remotely. Keep polling.
			o.logger.Printf("[GENERATION] Job %s poll error: %v", jobID, err)
			continue
		}

		switch report.State {
		case RemoteSucceeded:
			o.transition(jobID, func(j *Job) {
				j.Status = StatusSucceeded
				j.Result = &AssetRef{URL: report.AssetURL, MimeType: report.MimeType}
			})
			return
		case RemoteFailed:
			o.transition(jobID, func(j *Job) {
				j.Status = StatusFailed
				j.Error = report.Error
			})
			return
		}
	}

	o.transition(jobID, func(j *Job) {
		j.Status = StatusFailed
		j.Error = "generation timed out"
	})
}

// transition applies a status mutation atomically and fans the update out to
// the event bus and the audit sink.
func (o *Orchestrator) transition(jobID uuid.UUID, mutate func(*Job)) {
	o.mu.Lock()
	job, ok := o.jobs[jobID]
	if !ok || job.Terminal() {
		// Terminal states are final; nothing ever mutates them again.
		o.mu.Unlock()
		return
	}
	mutate(job)
	job.UpdatedAt = time.Now()
	snapshot := *job
	o.mu.Unlock()

	o.logger.Printf("[GENERATION] Job %s -> %s", jobID, snapshot.Status)
	o.notify(snapshot)
}

func (o *Orchestrator) notify(job Job) {
	if o.audit != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := o.audit.Record(ctx, job); err != nil {
			o.logger.Printf("[WARN] Job %s audit record failed: %v", job.ID, err)
		}
		cancel()
	}

	if o.publisher == nil {
		return
	}
	update := Update{
		JobID:     job.ID,
		SessionID: job.SessionID,
		UserID:    job.UserID,
		Kind:      job.Kind,
		Status:    job.Status,
		Result:    job.Result,
		Error:     job.Error,
		RetryOf:   job.RetryOf,
		UpdatedAt: job.UpdatedAt,
	}
	data, err := json.Marshal(update)
	if err != nil {
		o.logger.Printf("[WARN] Job %s update marshal failed: %v", job.ID, err)
		return
	}
	msg := message.NewMessage(job.ID.String()+":"+job.Status, data)
	if err := o.publisher.Publish(JobsTopic, msg); err != nil {
		o.logger.Printf("[WARN] Job %s update publish failed: %v", job.ID, err)
	}
}

func sortJobs(jobs []Job) {
	// Insertion sort; a panel session holds a handful of jobs at most.
	for i := 1; i < len(jobs); i++ {
		for j := i; j > 0 && jobs[j].CreatedAt.Before(jobs[j-1].CreatedAt); j-- {
			jobs[j], jobs[j-1] = jobs[j-1], jobs[j]
		}
	}
}
