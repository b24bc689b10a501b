// Package router assembles the gin engine and the catalog routes.
package router

import "github.com/gin-gonic/gin"

const defaultAPIVersion = "v1"

// Route binds one method and relative path to its handler chain.
type Route struct {
	Method   string
	Path     string
	Handlers []gin.HandlerFunc
}

// Resource is a set of routes mounted under a common path, optionally
// behind middleware that applies to that resource only.
type Resource struct {
	Path       string
	Middleware []gin.HandlerFunc
	Routes     []Route
}

// Handle returns a copy of res with the route appended; res is not modified.
func (res Resource) Handle(method, path string, handlers ...gin.HandlerFunc) Resource {
	n := len(res.Routes)
	res.Routes = append(res.Routes[:n:n], Route{Method: method, Path: path, Handlers: handlers})
	return res
}

func (res Resource) mount(parent *gin.RouterGroup) {
	group := parent.Group(res.Path, res.Middleware...)
	for _, route := range res.Routes {
		group.Handle(route.Method, route.Path, route.Handlers...)
	}
}

// Router mounts resources under /api/<version>.
type Router struct {
	engine     *gin.Engine
	apiVersion string
	resources  []Resource
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion overrides the version segment of the API prefix.
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a Router for engine
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: defaultAPIVersion}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues res for Setup
func (r *Router) Register(res Resource) *Router {
	r.resources = append(r.resources, res)
	return r
}

// Prefix returns the path every registered resource is mounted under.
func (r *Router) Prefix() string {
	return "/api/" + r.apiVersion
}

// Setup mounts every registered resource on the engine.
func (r *Router) Setup() {
	api := r.engine.Group(r.Prefix())
	for _, res := range r.resources {
		res.mount(api)
	}
}
