package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrey78787878/audit/internal/journal"
	auditlog "github.com/andrey78787878/audit/internal/log"
	"github.com/andrey78787878/audit/internal/metrics"
)

type memJournal struct {
	mu      sync.Mutex
	entries []journal.Entry
}

func (j *memJournal) Record(e journal.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return nil
}

func (j *memJournal) all() []journal.Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]journal.Entry(nil), j.entries...)
}

func sampleRecord() Record {
	return Record{
		Timestamp: time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC),
		UserID:    "42",
		Category:  "Backend",
		Task:      "Errors are wrapped",
		Answer:    "Нет",
		Code:      "",
		Comment:   "missing null check",
	}
}

func TestDeliverPostsJSONPayload(t *testing.T) {
	var (
		gotBody   map[string]any
		gotHeader http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotHeader = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	j := &memJournal{}
	p := New(Config{URL: srv.URL, Journal: j, Logger: auditlog.Discard()})

	require.NoError(t, p.Deliver(context.Background(), sampleRecord()))

	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	assert.NotEmpty(t, gotHeader.Get("X-Delivery-ID"))
	assert.Equal(t, map[string]any{
		"timestamp": "2026-10-15T09:30:00Z",
		"user_id":   "42",
		"category":  "Backend",
		"task":      "Errors are wrapped",
		"answer":    "Нет",
		"code":      "",
		"comment":   "missing null check",
	}, gotBody)

	entries := j.all()
	require.Len(t, entries, 1)
	assert.Equal(t, journal.StatusDelivered, entries[0].Status)
	assert.Equal(t, gotHeader.Get("X-Delivery-ID"), entries[0].ID)
	assert.Equal(t, 0, p.Health().ConsecutiveFailures())
}

func TestDeliverNon2xxIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	j := &memJournal{}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	p := New(Config{URL: srv.URL, Journal: j, Metrics: m, Logger: auditlog.Discard()})

	err := p.Deliver(context.Background(), sampleRecord())
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Code)

	entries := j.all()
	require.Len(t, entries, 1)
	assert.Equal(t, journal.StatusFailed, entries[0].Status)
	assert.Contains(t, entries[0].Error, "500")
	assert.Equal(t, 1, p.Health().ConsecutiveFailures())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeliveriesTotal.WithLabelValues(metrics.OutcomeFailed)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.DeliveriesInFlight))
}

func TestSubmitTimesOutWithoutBlocking(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	j := &memJournal{}
	p := New(Config{URL: srv.URL, Timeout: 50 * time.Millisecond, Journal: j, Logger: auditlog.Discard()})

	start := time.Now()
	p.Submit(sampleRecord())
	assert.Less(t, time.Since(start), 40*time.Millisecond, "Submit must return before the request finishes")

	p.Wait()
	entries := j.all()
	require.Len(t, entries, 1)
	assert.Equal(t, journal.StatusFailed, entries[0].Status)
}

func TestSubmitUnreachableCollector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	j := &memJournal{}
	p := New(Config{URL: url, Journal: j, Logger: auditlog.Discard()})
	p.Submit(sampleRecord())
	p.Wait()

	entries := j.all()
	require.Len(t, entries, 1)
	assert.Equal(t, journal.StatusFailed, entries[0].Status)
}

func TestSubmitNoRetry(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := New(Config{URL: srv.URL, Logger: auditlog.Discard()})
	for i := 0; i < 3; i++ {
		p.Submit(sampleRecord())
	}
	p.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, calls, "each record is posted exactly once")
}

func TestHealthDegradesAndRecovers(t *testing.T) {
	var (
		mu   sync.Mutex
		fail = true
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	p := New(Config{URL: srv.URL, Health: NewHealth(2), Logger: auditlog.Discard()})
	ctx := context.Background()

	_ = p.Deliver(ctx, sampleRecord())
	assert.False(t, p.Health().Degraded())
	_ = p.Deliver(ctx, sampleRecord())
	assert.True(t, p.Health().Degraded())

	mu.Lock()
	fail = false
	mu.Unlock()
	require.NoError(t, p.Deliver(ctx, sampleRecord()))
	assert.False(t, p.Health().Degraded())
}

func TestRateLimitRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	p := New(Config{URL: srv.URL, RateLimit: 0.001, Burst: 1, Logger: auditlog.Discard()})
	require.NoError(t, p.Deliver(context.Background(), sampleRecord()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Deliver(ctx, sampleRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestSubmitterFunc(t *testing.T) {
	var got Record
	var s Submitter = SubmitterFunc(func(rec Record) { got = rec })
	s.Submit(sampleRecord())
	assert.Equal(t, "42", got.UserID)
}
