package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-user-directory/pkg/response"
)

// APIPrefix is the group every module registers under.
const APIPrefix = "/api"

// Module registers its routes on the API group.
type Module interface {
	Register(rg *gin.RouterGroup)
}

// MethodFallback is implemented by modules that answer every method on a path.
// gin only routes methods it has a tree for, so anything else is handed over
// from NoRoute. Keys are relative to the API group.
type MethodFallback interface {
	Fallbacks() map[string]gin.HandlerFunc
}

// Registry collects modules and group-level middleware until RegisterAll mounts them.
type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	middlewares []gin.HandlerFunc
	modules     []Module
	fallbacks   map[string]gin.HandlerFunc
}

func NewRegistry(engine *gin.Engine) *Registry {
	return &Registry{
		Engine:    engine,
		API:       engine.Group(APIPrefix),
		fallbacks: map[string]gin.HandlerFunc{},
	}
}

// Use adds middleware that runs only for routes under APIPrefix.
func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *Registry) Add(mods ...Module) {
	r.modules = append(r.modules, mods...)
}

// RegisterAll applies the middleware first so every module route sees it,
// then installs the JSON NoRoute handler.
func (r *Registry) RegisterAll() {
	if len(r.middlewares) > 0 {
		r.API.Use(r.middlewares...)
	}
	for _, m := range r.modules {
		m.Register(r.API)
		if fb, ok := m.(MethodFallback); ok {
			for rel, h := range fb.Fallbacks() {
				r.fallbacks[path.Join(r.API.BasePath(), rel)] = h
			}
		}
	}

	noRoute := make([]gin.HandlerFunc, 0, len(r.middlewares)+1)
	noRoute = append(noRoute, r.middlewares...)
	r.Engine.NoRoute(append(noRoute, r.noRoute)...)
}

func (r *Registry) noRoute(c *gin.Context) {
	if h, ok := r.fallbacks[c.Request.URL.Path]; ok {
		h(c)
		return
	}
	response.Error[any](c, http.StatusNotFound, "route not found", nil)
}
