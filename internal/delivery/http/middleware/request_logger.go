package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"shiprate-backend/pkg/logger"
	"shiprate-backend/pkg/utils"

	"github.com/google/uuid"
)

// RequestLogger gives every request an 8-char id, carries a request-scoped
// logger in the context and logs one line per request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.New().String()[:8]
		}
		reqLogger := logger.WithRequestID(requestID)

		r = r.WithContext(logger.NewContext(r.Context(), &reqLogger))
		w.Header().Set("X-Request-ID", requestID)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		userID := ""
		if r.Header.Get("Authorization") != "" {
			if claims, err := utils.ExtractClaims(r); err == nil {
				userID = claims.UserID
			}
		}

		event := reqLogger.Info()
		switch {
		case wrapped.statusCode >= 500:
			event = reqLogger.Error()
		case wrapped.statusCode >= 400:
			event = reqLogger.Warn()
		}

		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("query", r.URL.RawQuery).
			Int("status", wrapped.statusCode).
			Dur("duration_ms", time.Since(start)).
			Str("ip", getClientIP(r)).
			Str("user_agent", r.UserAgent()).
			Str("user_id", userID).
			Msg("HTTP")
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// getClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection address without its port.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
