package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// wrap an http.ResponseWriter to track response status and size.
type StatusRecorder struct {
	http.ResponseWriter
	Status    int
	Written   int64
	Start     time.Time
	RequestID string
}

// captures the status code and injects tracing headers.
func (r *StatusRecorder) WriteHeader(status int) {
	if r.Status != 0 {
		return
	}
	r.Status = status
	r.ResponseWriter.Header().Set("X-Request-ID", r.RequestID)
	r.ResponseWriter.Header().Set("X-Processing-Time", time.Since(r.Start).String())
	r.ResponseWriter.WriteHeader(status)
}

func (r *StatusRecorder) Write(b []byte) (int, error) {
	if r.Status == 0 {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(b)
	r.Written += int64(n)
	return n, err
}

// Logging emits one structured line per request and turns handler panics into 500s.
func Logging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = "req_" + strconv.FormatInt(start.UnixNano(), 10)
			}

			rec := &StatusRecorder{
				ResponseWriter: w,
				Start:          start,
				RequestID:      requestID,
			}

			defer func() {
				if err := recover(); err != nil {
					logger.Error().
						Str("request_id", requestID).
						Str("method", r.Method).
						Str("path", r.URL.Path).
						Interface("panic", err).
						Msg("panic recovered")
					if rec.Status == 0 {
						rec.Header().Set("Content-Type", "application/json; charset=utf-8")
						rec.WriteHeader(http.StatusInternalServerError)
						_, _ = rec.Write([]byte(`{"success":false,"message":"Server Error"}`))
					}
				}

				logger.Info().
					Str("request_id", requestID).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", rec.Status).
					Int64("bytes", rec.Written).
					Dur("duration", time.Since(start)).
					Msg("request")
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
