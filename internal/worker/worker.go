package worker

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/conflearn/backend/pkg/mailer"
	"github.com/conflearn/backend/pkg/queue"
)

const sendTimeout = 30 * time.Second

// EmailProcessor drains the email job queue and delivers through the
// configured mailer. Failed sends are retried with backoff until the queue
// moves the job to the dead-letter list.
type EmailProcessor struct {
	queue  *queue.Queue
	mail   mailer.Mailer
	logger *zap.Logger
}

func NewEmailProcessor(q *queue.Queue, mail mailer.Mailer, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{queue: q, mail: mail, logger: logger}
}

// Run blocks processing jobs until ctx is cancelled.
func (p *EmailProcessor) Run(ctx context.Context) {
	p.logger.Info("email worker started")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopped")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("email worker stopped")
				return
			}
			p.logger.Error("dequeue failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}
		p.process(ctx, job)
	}
}

func (p *EmailProcessor) process(ctx context.Context, job *queue.Job) {
	if job.Type != queue.JobTypeEmail {
		p.logger.Warn("unknown job type", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		return
	}

	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		p.logger.Error("invalid email payload", zap.String("job_id", job.ID), zap.Error(err))
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := p.mail.Send(sendCtx, payload.RecipientEmail, payload.Subject, payload.BodyHTML); err != nil {
		p.logger.Warn("email send failed",
			zap.String("job_id", job.ID),
			zap.String("email_kind", payload.EmailKind),
			zap.Int("attempt", job.Attempt),
			zap.Error(err))
		time.Sleep(queue.RetryBackoff)
		if err := p.queue.Retry(ctx, job); err != nil {
			p.logger.Error("retry failed", zap.String("job_id", job.ID), zap.Error(err))
		}
		return
	}

	p.logger.Info("email sent",
		zap.String("job_id", job.ID),
		zap.String("email_kind", payload.EmailKind),
		zap.String("recipient", payload.RecipientEmail))
}
