package app

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"webwrap/internal/infrastructure/logging"
)

// NewProxyHandler serves the target web application through the Wails asset
// server so the remote page loads in the window with the bindings injected
func NewProxyHandler(target string, logger logging.Logger) (http.Handler, error) {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("target url must be an absolute http(s) url: %q", target)
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(u)
			r.Out.Host = u.Host
			r.SetXForwarded()
			// the asset server rewrites HTML to inject the Wails runtime
			r.Out.Header.Del("Accept-Encoding")
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warn("Proxy request failed", "url", r.URL.String(), "error", err)
			http.Error(w, "upstream unavailable", http.StatusBadGateway)
		},
	}
	return proxy, nil
}
