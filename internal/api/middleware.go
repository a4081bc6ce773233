package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// adminMiddleware guards the registry endpoints behind an X-Admin-Key header.
// A bcrypt hash takes precedence over a plaintext key; plaintext comparison is
// constant-time. With neither configured every request is rejected.
func (d *Dependencies) adminMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-Admin-Key")
		if key == "" {
			writeJSON(w, http.StatusUnauthorized, ErrorResp{Detail: "Missing X-Admin-Key header"})
			return
		}
		if !d.adminKeyValid(key) {
			d.Logger.Warn("admin auth failed", zap.String("path", r.URL.Path))
			writeJSON(w, http.StatusUnauthorized, ErrorResp{Detail: "Invalid admin key"})
			return
		}
		next(w, r)
	}
}

func (d *Dependencies) adminKeyValid(key string) bool {
	if d.AdminKeyHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(d.AdminKeyHash), []byte(key)) == nil
	}
	if d.AdminKey != "" {
		return subtle.ConstantTimeCompare([]byte(d.AdminKey), []byte(key)) == 1
	}
	return false
}

// --- JSON helpers ---

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// readJSON decodes a JSON request body into the given pointer.
func readJSON(r *http.Request, v interface{}) error {
	defer func() { _ = r.Body.Close() }()
	return json.NewDecoder(r.Body).Decode(v)
}

// --- Request logging ---

func requestLogging(next http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
