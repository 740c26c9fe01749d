package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

var (
	corsDefaultMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsDefaultHeaders = []string{"Accept", "Content-Type", CorrelationIDHeader, SessionIDHeader}
)

const corsDefaultMaxAge = 3600

// CORSConfig configures the CORS middleware. Empty method and header lists and
// a zero MaxAge fall back to the storefront defaults.
type CORSConfig struct {
	// AllowedOrigins may contain "*" to accept any origin.
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	// ExposedHeaders must include X-Session-ID for a browser UI to keep its cart.
	ExposedHeaders []string
	MaxAge         int
	// Environment "development" accepts any origin.
	Environment string
}

// DefaultCORSConfig returns the development CORS configuration.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: slices.Clone(corsDefaultMethods),
		AllowedHeaders: slices.Clone(corsDefaultHeaders),
		ExposedHeaders: []string{CorrelationIDHeader, SessionIDHeader},
		MaxAge:         corsDefaultMaxAge,
		Environment:    "development",
	}
}

// corsPolicy is a CORSConfig resolved into ready-to-send header values.
type corsPolicy struct {
	anyOrigin bool
	origins   map[string]struct{}
	methods   string
	headers   string
	exposed   string
	maxAge    string
}

func newCORSPolicy(cfg CORSConfig) corsPolicy {
	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = corsDefaultMethods
	}
	headers := cfg.AllowedHeaders
	if len(headers) == 0 {
		headers = corsDefaultHeaders
	}
	maxAge := cfg.MaxAge
	if maxAge == 0 {
		maxAge = corsDefaultMaxAge
	}

	p := corsPolicy{
		anyOrigin: cfg.Environment == "development" || slices.Contains(cfg.AllowedOrigins, "*"),
		origins:   make(map[string]struct{}, len(cfg.AllowedOrigins)),
		methods:   strings.Join(methods, ", "),
		headers:   strings.Join(headers, ", "),
		exposed:   strings.Join(cfg.ExposedHeaders, ", "),
		maxAge:    strconv.Itoa(maxAge),
	}
	for _, o := range cfg.AllowedOrigins {
		p.origins[o] = struct{}{}
	}
	return p
}

func (p corsPolicy) apply(h http.Header, origin string) {
	switch {
	case p.anyOrigin:
		h.Set("Access-Control-Allow-Origin", "*")
	case origin != "":
		if _, ok := p.origins[origin]; ok {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}
	}

	h.Set("Access-Control-Allow-Methods", p.methods)
	h.Set("Access-Control-Allow-Headers", p.headers)
	if p.exposed != "" {
		h.Set("Access-Control-Expose-Headers", p.exposed)
	}
	h.Set("Access-Control-Max-Age", p.maxAge)
}

// CORS sets Cross-Origin Resource Sharing headers and answers preflight
// requests with 204.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	policy := newCORSPolicy(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			policy.apply(w.Header(), r.Header.Get("Origin"))

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
