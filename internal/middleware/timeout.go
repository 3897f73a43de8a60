package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Timeout cancels the request context after d and answers 503 when the
// handler has not started a response by then. Handler output arriving
// after the deadline is discarded rather than corrupting the timeout
// response.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			ow := &onceWriter{ResponseWriter: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(ow, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if ow.expire() {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusServiceUnavailable)
					_, _ = w.Write([]byte(`{"success":false,"error":"request timed out"}`))
				}
			}
		})
	}
}

// onceWriter arbitrates between the handler goroutine and the timeout
// path: whichever starts the response first wins.
type onceWriter struct {
	http.ResponseWriter
	mu      sync.Mutex
	started bool
	expired bool
}

func (ow *onceWriter) WriteHeader(code int) {
	ow.mu.Lock()
	defer ow.mu.Unlock()
	if ow.expired || ow.started {
		return
	}
	ow.started = true
	ow.ResponseWriter.WriteHeader(code)
}

func (ow *onceWriter) Write(b []byte) (int, error) {
	ow.mu.Lock()
	defer ow.mu.Unlock()
	if ow.expired {
		return len(b), nil
	}
	if !ow.started {
		ow.started = true
		ow.ResponseWriter.WriteHeader(http.StatusOK)
	}
	return ow.ResponseWriter.Write(b)
}

// expire marks the response as taken over by the timeout path. It
// reports false when the handler already started writing, in which
// case the partial response is left alone.
func (ow *onceWriter) expire() bool {
	ow.mu.Lock()
	defer ow.mu.Unlock()
	if ow.started || ow.expired {
		return false
	}
	ow.expired = true
	return true
}
