// Package router wraps chi with named routes and prefix groups.
//
//	r := router.New()
//	api := r.Group("/api/v1")
//	api.Get("/items/{item_id}", "items.show", ctx.Wrap(ic.Show))
//	url, _ := r.URL("items.show", map[string]string{"item_id": "1"})
package router

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/itemsapi/pkg/response"
)

type Middleware func(http.Handler) http.Handler

// Route describes one registered endpoint.
type Route struct {
	Method string
	Path   string
	Name   string
}

// Router owns the chi mux and the route table.
type Router struct {
	root *Group
	mux  chi.Router

	mu     sync.RWMutex
	names  map[string]string
	routes []Route
}

// Group registers routes under a common prefix and middleware chain.
type Group struct {
	router      *Router
	prefix      string
	middlewares []Middleware
}

// New returns a router whose unmatched paths and methods answer with
// {"detail": ...} bodies.
func New() *Router {
	mux := chi.NewRouter()
	mux.NotFound(func(w http.ResponseWriter, _ *http.Request) { response.NotFound(w) })
	mux.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) { response.MethodNotAllowed(w) })

	r := &Router{mux: mux, names: make(map[string]string)}
	r.root = &Group{router: r, prefix: "/"}
	return r
}

func (r *Router) Group(prefix string, middlewares ...Middleware) *Group {
	return r.root.Group(prefix, middlewares...)
}

func (r *Router) Get(path, name string, h http.HandlerFunc, mw ...Middleware) {
	r.root.Get(path, name, h, mw...)
}

func (r *Router) Post(path, name string, h http.HandlerFunc, mw ...Middleware) {
	r.root.Post(path, name, h, mw...)
}

func (r *Router) Handler() http.Handler { return r.mux }

// Use appends router-level middleware. chi panics if this is called after
// the first route is registered.
func (r *Router) Use(middlewares ...Middleware) {
	for _, mw := range middlewares {
		r.mux.Use(mw)
	}
}

// Path returns the pattern registered under name.
func (r *Router) Path(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.names[name]
	return p, ok
}

// URL fills the {placeholders} of a named route.
func (r *Router) URL(name string, params map[string]string) (string, error) {
	p, ok := r.Path(name)
	if !ok {
		return "", fmt.Errorf("route %q not found", name)
	}
	for key, value := range params {
		p = strings.ReplaceAll(p, "{"+key+"}", value)
	}
	if strings.Contains(p, "{") {
		return "", fmt.Errorf("missing parameters for route %q", name)
	}
	return p, nil
}

// Routes returns every registered route sorted by path, then method.
func (r *Router) Routes() []Route {
	r.mu.RLock()
	out := append([]Route(nil), r.routes...)
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}

func (r *Router) register(rt Route, h http.Handler) {
	r.mux.Method(rt.Method, rt.Path, h)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, rt)
	if rt.Name != "" {
		r.names[rt.Name] = rt.Path
	}
}

// Group derives a child group. Its middleware runs after the parent's.
func (g *Group) Group(prefix string, middlewares ...Middleware) *Group {
	return &Group{
		router:      g.router,
		prefix:      joinPath(g.prefix, prefix),
		middlewares: append(append([]Middleware(nil), g.middlewares...), middlewares...),
	}
}

func (g *Group) Get(path, name string, h http.HandlerFunc, mw ...Middleware) {
	g.Handle(http.MethodGet, path, name, h, mw...)
}

func (g *Group) Post(path, name string, h http.HandlerFunc, mw ...Middleware) {
	g.Handle(http.MethodPost, path, name, h, mw...)
}

func (g *Group) Put(path, name string, h http.HandlerFunc, mw ...Middleware) {
	g.Handle(http.MethodPut, path, name, h, mw...)
}

func (g *Group) Delete(path, name string, h http.HandlerFunc, mw ...Middleware) {
	g.Handle(http.MethodDelete, path, name, h, mw...)
}

// Handle registers h for method at the group prefix joined with path.
func (g *Group) Handle(method, path, name string, h http.Handler, mw ...Middleware) {
	chain := append(append([]Middleware(nil), g.middlewares...), mw...)
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	g.router.register(Route{Method: method, Path: joinPath(g.prefix, path), Name: name}, h)
}

// joinPath joins segments with single slashes, dropping empty ones and any
// trailing slash. The result always starts with "/".
func joinPath(parts ...string) string {
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.Trim(part, "/"); trimmed != "" {
			segments = append(segments, trimmed)
		}
	}
	return "/" + strings.Join(segments, "/")
}
