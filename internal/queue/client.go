package queue

import (
	"context"
	"crypto/tls"
	"fmt"

	"medicore_backend/internal/audit"
	"medicore_backend/internal/config"
	"medicore_backend/internal/leads/repository"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Client is the producer side of the event queue. It satisfies the enqueuer
// interfaces declared by the domain packages so producers depend on their own
// narrow contract rather than on this package.
type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(cfg.RedisURL, cfg.RedisTLSInsecure)
	if err != nil {
		return nil, err
	}

	queue := cfg.AsynqQueue
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error {
	opts = append(opts, asynq.Queue(c.queue))
	_, err := c.client.EnqueueContext(ctx, task, opts...)
	return err
}

// EnqueueLeadFollowUp publishes a created lead for downstream announcement.
func (c *Client) EnqueueLeadFollowUp(ctx context.Context, lead repository.Lead) error {
	task, err := NewLeadFollowUpTask(LeadFollowUpPayload{
		LeadID:  lead.ID.String(),
		Name:    lead.Name,
		Email:   lead.Email,
		Phone:   lead.Phone,
		Source:  lead.Source,
		AIScore: lead.AIScore,
	})
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task)
}

// EnqueueLeadIntake publishes a chatbot-captured candidate for asynchronous
// creation. The HTTP adapter acknowledges before the lead exists.
func (c *Client) EnqueueLeadIntake(ctx context.Context, payload LeadIntakePayload) error {
	task, err := NewLeadIntakeTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task)
}

// EnqueueImportJob hands a bulk import job to the worker.
func (c *Client) EnqueueImportJob(ctx context.Context, jobID, objectKey string) error {
	task, err := NewImportJobTask(ImportJobPayload{JobID: jobID, ObjectKey: objectKey})
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task)
}

// EnqueueAuditEntry ships an audit entry to the append consumer.
func (c *Client) EnqueueAuditEntry(ctx context.Context, entry audit.Entry) error {
	task, err := NewAuditEntryTask(AuditEntryPayload{
		ID:        entry.ID.String(),
		Action:    entry.Action,
		UserID:    entry.UserID,
		TargetID:  entry.TargetID,
		Details:   entry.Details,
		Timestamp: entry.Timestamp,
	})
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task)
}

// EnqueueMediaProcess queues an uploaded media object for processing.
func (c *Client) EnqueueMediaProcess(ctx context.Context, objectKey string) error {
	task, err := NewMediaTask(MediaPayload{ObjectKey: objectKey})
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task)
}

// EnqueueTranscription queues a recorded call for AI summarization.
func (c *Client) EnqueueTranscription(ctx context.Context, callLogID, recordingURL string) error {
	task, err := NewTranscriptionTask(TranscriptionPayload{CallLogID: callLogID, RecordingURL: recordingURL})
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task)
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
