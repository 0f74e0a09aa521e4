package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-user-directory/internal/interface/http"
	"github.com/oksasatya/go-user-directory/internal/interface/middleware"
)

// UserModule mounts the single /user endpoint; the handler dispatches on method.
// Every method goes through the route so unsupported ones reach the 405 path.
type UserModule struct {
	Handler       *handlers.UserHandler
	Redis         *redis.Client
	PerMinute     int
	BypassPrivate bool
}

func NewUserModule(h *handlers.UserHandler, rdb *redis.Client, perMinute int, bypassPrivate bool) *UserModule {
	return &UserModule{Handler: h, Redis: rdb, PerMinute: perMinute, BypassPrivate: bypassPrivate}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	var allow middleware.AllowFunc
	if m.BypassPrivate {
		allow = middleware.AllowPrivateIP()
	}
	limiter := middleware.RateLimit(m.Redis, m.PerMinute, time.Minute, middleware.KeyByIPAndPath(), allow)
	rg.Any("/user", limiter, m.Handler.Handle)
}

// Fallbacks sends methods outside gin's standard set to the same handler so they get a 405.
func (m *UserModule) Fallbacks() map[string]gin.HandlerFunc {
	return map[string]gin.HandlerFunc{"/user": m.Handler.Handle}
}
