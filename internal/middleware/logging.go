// Package middleware holds the HTTP middlewares shared by the server's
// endpoints.
package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// LogMiddleware logs method, path, remote address and duration of every
// request using Logrus.
func LogMiddleware(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"remote":   r.RemoteAddr,
				"duration": time.Since(start),
			}).Info("http request")
		})
	}
}

// LogWebSocketConnect marks an accepted websocket upgrade.
func LogWebSocketConnect(logger *logrus.Logger, remoteAddr string) {
	logger.WithField("remote", remoteAddr).Info("websocket connected")
}

// LogWebSocketDisconnect marks the end of a websocket connection with the
// close code and reason observed.
func LogWebSocketDisconnect(logger *logrus.Logger, remoteAddr string, code int, reason string) {
	logger.WithFields(logrus.Fields{
		"remote": remoteAddr,
		"code":   code,
		"reason": reason,
	}).Info("websocket disconnected")
}
