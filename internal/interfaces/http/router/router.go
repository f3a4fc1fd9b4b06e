// Package router assembles the versioned route tree of the back-office API.
package router

import (
	"net/http"
	"path"
	"sort"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar mounts its routes below rg
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Route is one mounted endpoint
type Route struct {
	Area   string
	Method string
	Path   string
}

// Router mounts API areas under /api/{version}
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion sets the version segment of the API prefix
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.apiVersion = version }
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues registrars for Setup
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Base is the common prefix of every API route
func (r *Router) Base() string {
	return "/api/" + r.apiVersion
}

// Setup mounts every registrar and returns the routes of the areas it knows,
// sorted by path then method.
func (r *Router) Setup() []Route {
	api := r.engine.Group(r.Base())
	var routes []Route
	for _, reg := range r.registrars {
		reg.RegisterRoutes(api)
		if a, ok := reg.(*Area); ok {
			routes = append(routes, a.Routes(r.Base())...)
		}
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})
	return routes
}

// Area collects the endpoints of one part of the API, such as orders or
// reports. Areas nest; a nested area inherits the middleware of its parent.
type Area struct {
	name       string
	prefix     string
	endpoints  []endpoint
	children   []*Area
	middleware []gin.HandlerFunc
}

type endpoint struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

func NewArea(name, prefix string) *Area {
	return &Area{name: name, prefix: prefix}
}

// Use adds middleware that runs for every endpoint of the area
func (a *Area) Use(middleware ...gin.HandlerFunc) *Area {
	a.middleware = append(a.middleware, middleware...)
	return a
}

func (a *Area) add(method, p string, handlers []gin.HandlerFunc) *Area {
	a.endpoints = append(a.endpoints, endpoint{method: method, path: p, handlers: handlers})
	return a
}

func (a *Area) GET(p string, handlers ...gin.HandlerFunc) *Area {
	return a.add(http.MethodGet, p, handlers)
}

func (a *Area) POST(p string, handlers ...gin.HandlerFunc) *Area {
	return a.add(http.MethodPost, p, handlers)
}

func (a *Area) PUT(p string, handlers ...gin.HandlerFunc) *Area {
	return a.add(http.MethodPut, p, handlers)
}

// Sub adds a nested area and returns it
func (a *Area) Sub(name, prefix string) *Area {
	child := NewArea(a.name+"."+name, prefix)
	a.children = append(a.children, child)
	return child
}

// RegisterRoutes implements RouteRegistrar
func (a *Area) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group(a.prefix, a.middleware...)
	for _, e := range a.endpoints {
		g.Handle(e.method, e.path, e.handlers...)
	}
	for _, child := range a.children {
		child.RegisterRoutes(g)
	}
}

// Routes lists the endpoints of the area and its children below base
func (a *Area) Routes(base string) []Route {
	prefix := join(base, a.prefix)
	routes := make([]Route, 0, len(a.endpoints))
	for _, e := range a.endpoints {
		routes = append(routes, Route{Area: a.name, Method: e.method, Path: join(prefix, e.path)})
	}
	for _, child := range a.children {
		routes = append(routes, child.Routes(prefix)...)
	}
	return routes
}

func join(base, rel string) string {
	if rel == "" {
		return base
	}
	return path.Join(base, rel)
}
