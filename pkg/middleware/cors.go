package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shashiranjanraj/itemsapi/pkg/response"
)

// CORSOptions configures the CORS middleware.
type CORSOptions struct {
	AllowedOrigins   []string // exact origins, or "*"
	AllowedMethods   []string // "*" allows any method
	AllowedHeaders   []string // "*" echoes Access-Control-Request-Headers
	AllowCredentials bool
	MaxAge           int // seconds for preflight cache
}

// DefaultCORSOptions allows the given origins with credentials and any
// method or header.
func DefaultCORSOptions(origins []string) CORSOptions {
	return CORSOptions{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"*"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           600,
	}
}

// CORS returns a middleware that adds Cross-Origin Resource Sharing headers
// for allowed origins and answers preflight requests itself.
func CORS(opts CORSOptions) func(http.Handler) http.Handler {
	anyOrigin := contains(opts.AllowedOrigins, "*")
	anyMethod := contains(opts.AllowedMethods, "*")
	anyHeader := contains(opts.AllowedHeaders, "*")
	methods := strings.Join(opts.AllowedMethods, ", ")
	if anyMethod {
		methods = "DELETE, GET, HEAD, OPTIONS, PATCH, POST, PUT"
	}
	headers := strings.Join(opts.AllowedHeaders, ", ")

	allowed := func(origin string) bool {
		return origin != "" && (anyOrigin || contains(opts.AllowedOrigins, origin))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Add("Vary", "Origin")
				if !allowed(origin) {
					response.Detail(w, http.StatusBadRequest, "Disallowed CORS origin")
					return
				}
				setAllowOrigin(h, origin, anyOrigin, opts.AllowCredentials)
				h.Set("Access-Control-Allow-Methods", methods)
				if anyHeader {
					if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
						h.Set("Access-Control-Allow-Headers", req)
					}
				} else if headers != "" {
					h.Set("Access-Control-Allow-Headers", headers)
				}
				if opts.MaxAge > 0 {
					h.Set("Access-Control-Max-Age", strconv.Itoa(opts.MaxAge))
				}
				w.WriteHeader(http.StatusOK)
				return
			}

			if allowed(origin) {
				h.Add("Vary", "Origin")
				setAllowOrigin(h, origin, anyOrigin, opts.AllowCredentials)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// setAllowOrigin echoes origin unless the wildcard applies without credentials.
func setAllowOrigin(h http.Header, origin string, anyOrigin, credentials bool) {
	if anyOrigin && !credentials {
		h.Set("Access-Control-Allow-Origin", "*")
	} else {
		h.Set("Access-Control-Allow-Origin", origin)
	}
	if credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
