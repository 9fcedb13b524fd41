package server

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/Its-donkey/shrine-live/logging"
)

// apiProxyHandler forwards /api/* to the backend so the browser client can
// use same-origin relative URLs.
func apiProxyHandler(target *url.URL, logger *logging.Logger) http.Handler {
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.WithRequestID(logging.RequestID(r.Context())).
			WithCategory("http").
			WithField("path", r.URL.Path).
			WithField("error", err.Error()).
			Warn("api proxy failed")
		w.WriteHeader(http.StatusBadGateway)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Host = target.Host
		proxy.ServeHTTP(w, r)
	})
}
