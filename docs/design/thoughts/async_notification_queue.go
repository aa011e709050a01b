package email

// Design sketch: buffering order/membership notification emails behind
// a worker pool instead of sending inline from the service layer.
// Parked because SendGrid calls are already fire-and-forget from the
// caller's perspective (failures are logged, never returned), so the
// queue only buys retry. Revisit if send latency starts showing up in
// review-endpoint timings.

import (
	"context"
	"log"
	"time"
)

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NotificationJob is one queued email with its retry budget.
type NotificationJob struct {
	To        string
	Subject   string
	Body      string
	Retries   int
	CreatedAt time.Time
}

// NotificationQueue drains jobs through a bounded worker pool.
type NotificationQueue struct {
	sender  Sender
	jobs    chan NotificationJob
	workers int
}

func NewNotificationQueue(sender Sender, buffer, workers int) *NotificationQueue {
	return &NotificationQueue{
		sender:  sender,
		jobs:    make(chan NotificationJob, buffer),
		workers: workers,
	}
}

func (q *NotificationQueue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		go q.worker(ctx)
	}
}

// Enqueue drops the job when the buffer is full rather than blocking a
// request handler.
func (q *NotificationQueue) Enqueue(job NotificationJob) bool {
	select {
	case q.jobs <- job:
		return true
	default:
		return false
	}
}

func (q *NotificationQueue) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.jobs:
			if err := q.sender.Send(ctx, job.To, job.Subject, job.Body); err != nil {
				if job.Retries < 3 {
					job.Retries++
					time.Sleep(time.Duration(job.Retries) * time.Second)
					q.Enqueue(job)
					continue
				}
				log.Printf("dropping notification to %s after %d retries: %v", job.To, job.Retries, err)
			}
		}
	}
}
