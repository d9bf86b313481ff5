package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/andrey78787878/audit/internal/journal"
	"github.com/andrey78787878/audit/internal/metrics"
)

// DefaultTimeout bounds a single collector request.
const DefaultTimeout = 7 * time.Second

// Journal persists delivery attempts.
type Journal interface {
	Record(e journal.Entry) error
}

// Config configures a Pipeline. Only URL is required.
type Config struct {
	URL       string
	Timeout   time.Duration
	RateLimit float64 // records per second, 0 means unlimited
	Burst     int

	Client  *http.Client
	Journal Journal
	Metrics *metrics.Metrics
	Health  *Health
	Logger  *slog.Logger
}

// Pipeline posts answer records to the collector.
type Pipeline struct {
	url     string
	timeout time.Duration
	client  *http.Client
	limiter *rate.Limiter
	journal Journal
	metrics *metrics.Metrics
	health  *Health
	logger  *slog.Logger

	wg sync.WaitGroup
}

// New creates a Pipeline from cfg.
func New(cfg Config) *Pipeline {
	p := &Pipeline{
		url:     cfg.URL,
		timeout: cfg.Timeout,
		client:  cfg.Client,
		journal: cfg.Journal,
		metrics: cfg.Metrics,
		health:  cfg.Health,
		logger:  cfg.Logger,
	}
	if p.timeout <= 0 {
		p.timeout = DefaultTimeout
	}
	if p.client == nil {
		p.client = &http.Client{}
	}
	if p.health == nil {
		p.health = NewHealth(0)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return p
}

// Submit delivers rec in the background and returns immediately.
func (p *Pipeline) Submit(rec Record) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		_ = p.Deliver(ctx, rec)
	}()
}

// Deliver performs one synchronous POST of rec. The outcome is logged,
// journaled and counted; the error is returned for callers that want it.
func (p *Pipeline) Deliver(ctx context.Context, rec Record) error {
	id := uuid.NewString()
	start := time.Now()
	p.metrics.DeliveryStarted()

	err := p.post(ctx, id, rec)

	elapsed := time.Since(start)
	p.finish(id, rec, err, elapsed)
	return err
}

// Wait blocks until every submitted record has finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Health returns the pipeline's collector health tracker.
func (p *Pipeline) Health() *Health {
	return p.health
}

func (p *Pipeline) post(ctx context.Context, id string, rec Record) error {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-ID", id)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("post to collector: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

func (p *Pipeline) finish(id string, rec Record, err error, elapsed time.Duration) {
	entry := journal.Entry{
		ID:         id,
		UserID:     rec.UserID,
		Category:   rec.Category,
		Task:       rec.Task,
		Answer:     rec.Answer,
		Comment:    rec.Comment,
		Status:     journal.StatusDelivered,
		DurationMs: elapsed.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}

	if err != nil {
		entry.Status = journal.StatusFailed
		entry.Error = err.Error()
		p.health.RecordFailure()
		p.metrics.DeliveryDone(metrics.OutcomeFailed, elapsed.Seconds())
		p.logger.Warn("delivery failed",
			"delivery_id", id,
			"user_id", rec.UserID,
			"category", rec.Category,
			"error", err,
		)
	} else {
		p.health.RecordSuccess()
		p.metrics.DeliveryDone(metrics.OutcomeDelivered, elapsed.Seconds())
		p.logger.Debug("delivered", "delivery_id", id, "user_id", rec.UserID, "duration_ms", entry.DurationMs)
	}

	if p.journal != nil {
		if jerr := p.journal.Record(entry); jerr != nil {
			p.logger.Error("journal delivery", "delivery_id", id, "error", jerr)
		}
	}
}
