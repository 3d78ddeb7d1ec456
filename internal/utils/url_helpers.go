package utils

import (
	"net/http"
	"net/url"
)

// URLFromRequest builds the externally visible URL for a request. HTTPS
// is detected from a direct TLS connection or X-Forwarded-Proto, and
// X-Forwarded-Host wins over the local host when a reverse proxy sets it.
func URLFromRequest(r *http.Request) *url.URL {
	u := &url.URL{
		Scheme: "http",
		Host:   r.Host,
	}
	if v := r.Header.Get("X-Forwarded-Host"); v != "" {
		u.Host = v
	}
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		u.Scheme = "https"
	}
	return u
}

// BaseURLFromRequest returns the external base URL as a string.
func BaseURLFromRequest(r *http.Request) string {
	return URLFromRequest(r).String()
}
