package http

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"

	applog "paytrack/internal/log"
)

const requestIDHeader = "X-Request-ID"

type contextKey string

const userIDKey contextKey = "user_id"

func userIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// route wraps a handler with request ID, logging, recovery, security headers,
// rate limiting and metrics. pattern labels the metrics.
func (s *Server) route(pattern string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := requestIDFrom(r)
		logger := s.logger.With(applog.FieldRequestID, requestID)
		ctx := applog.WithLogger(r.Context(), logger)
		r = r.WithContext(ctx)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		rw.Header().Set(requestIDHeader, requestID)
		setSecurityHeaders(rw)

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "Panic while serving request",
					"panic", rec, "stack", string(debug.Stack()), applog.FieldPath, r.URL.Path)
				if !rw.wroteHeader {
					InternalServerError().Write(rw)
				} else {
					rw.statusCode = http.StatusInternalServerError
				}
			}

			elapsed := time.Since(start)
			s.metrics.requests.WithLabelValues(pattern, r.Method, strconv.Itoa(rw.statusCode)).Inc()
			s.metrics.duration.WithLabelValues(pattern, r.Method).Observe(elapsed.Seconds())
			applog.NewStructuredLogger(logger).LogHTTPEnd(ctx, r, rw.statusCode, elapsed.Milliseconds(), clientIP)
		}()

		if detectSuspiciousRequest(r) {
			s.metrics.suspicious.Inc()
			logger.WarnContext(ctx, "Suspicious request", applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
		}

		if isMutation(r.Method) && !s.rateLimiter.allow(clientIP) {
			s.metrics.rateLimitHits.Inc()
			logger.WarnContext(ctx, "Rate limit exceeded", applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").
				Header("Retry-After", "60").
				Write(rw)
			return
		}

		next(rw, r)
	})
}

// requireUser rejects requests without a valid bearer token and stores the
// token's user ID in the request context.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			UnauthorizedError("missing bearer token").Write(w)
			return
		}
		userID, err := s.profiles.Tokens().Verify(token)
		if err != nil {
			slog.DebugContext(r.Context(), "Token rejected", "error", err)
			writeError(w, r, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	}
}

func requestIDFrom(r *http.Request) string {
	if id := r.Header.Get(requestIDHeader); id != "" && len(id) <= 64 && sanitizeInput(id) == id {
		return id
	}
	return uuid.NewString()
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func setSecurityHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
	h.Set("Referrer-Policy", "no-referrer")
	h.Set("Cache-Control", "no-store")
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
