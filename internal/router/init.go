package router

import (
	"github.com/oksasatya/go-user-directory/internal/container"
	handlers "github.com/oksasatya/go-user-directory/internal/interface/http"
	"github.com/oksasatya/go-user-directory/internal/router/modules"
)

// InitModules builds the feature modules from the container and adds them to the registry.
// Call it once at startup, before RegisterAll.
func InitModules(r *Registry, c *container.Container) {
	cfg := c.Config

	userHandler := handlers.NewUserHandler(c.UserService(), c.Logger)
	r.Add(modules.NewUserModule(userHandler, c.Redis, cfg.RateLimitPerMinute, cfg.RateLimitBypassPrivate))

	checks := []handlers.HealthCheck{{Name: "store", Check: c.PingStore}}
	if c.Redis != nil {
		checks = append(checks, handlers.HealthCheck{Name: "redis", Check: c.PingRedis})
	}
	r.Add(modules.NewHealthModule(handlers.NewHealthHandler(c.Logger, checks...)))

	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(c.Redis, cfg.RateLimitPerMinute))
	}
}
