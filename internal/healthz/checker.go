package healthz

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jdiitm/event-ingest/internal/config"
)

type ActivityReporter interface {
	LastInvocationTime() time.Time
}

type Checker struct {
	reporter         ActivityReporter
	bucketConfigured bool
}

type Option func(*Checker)

// WithBucketConfigured marks whether invocations can reach storage at all.
func WithBucketConfigured(ok bool) Option {
	return func(c *Checker) {
		c.bucketConfigured = ok
	}
}

func NewChecker(reporter ActivityReporter, opts ...Option) *Checker {
	c := &Checker{
		reporter:         reporter,
		bucketConfigured: true,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type response struct {
	Status              string `json:"status"`
	Message             string `json:"message,omitempty"`
	SinceLastInvocation string `json:"since_last_invocation,omitempty"`
}

func (c *Checker) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if !c.bucketConfigured {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, response{Status: "unhealthy", Message: config.MissingBucketMessage})
		return
	}

	last := c.reporter.LastInvocationTime()
	if last.IsZero() {
		w.WriteHeader(http.StatusOK)
		writeJSON(w, response{Status: "ok", Message: "no invocations yet"})
		return
	}

	w.WriteHeader(http.StatusOK)
	writeJSON(w, response{
		Status:              "ok",
		SinceLastInvocation: time.Since(last).Round(time.Millisecond).String(),
	})
}

func writeJSON(w http.ResponseWriter, v response) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
