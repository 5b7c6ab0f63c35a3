package mailqueue

import (
	"log/slog"
	"sync"

	"github.com/bitjob/backend/internal/infrastructure/smtp"
)

// Job describes one outbound email message.
type Job struct {
	To      []string
	Subject string
	Body    string
}

// Queue dispatches mail jobs to a background worker pool. Enqueue never
// blocks the request path: when the buffer is full the job is dropped and
// logged. Delivery is best-effort; transport failures are logged and
// swallowed, never surfaced to the enqueuing caller.
type Queue struct {
	mailer    smtp.Mailer
	jobs      chan Job
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewQueue starts workers goroutines consuming from a buffer of size jobs.
func NewQueue(mailer smtp.Mailer, workers, size int) *Queue {
	if workers < 1 {
		workers = 1
	}
	if size < 1 {
		size = 1
	}
	q := &Queue{
		mailer: mailer,
		jobs:   make(chan Job, size),
	}
	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.worker()
	}
	return q
}

// Enqueue submits a job for background delivery and returns immediately.
func (q *Queue) Enqueue(job Job) {
	select {
	case q.jobs <- job:
	default:
		slog.Warn("mail queue full, dropping message", "to", job.To, "subject", job.Subject)
	}
}

// Close stops accepting jobs and waits for in-flight deliveries to finish.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.jobs)
	})
	q.wg.Wait()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for job := range q.jobs {
		delivered, err := q.mailer.Send(job.To, job.Subject, job.Body)
		if err != nil {
			slog.Error("mail delivery failed", "to", job.To, "subject", job.Subject, "err", err)
			continue
		}
		slog.Debug("mail delivered", "recipients", delivered, "subject", job.Subject)
	}
}
