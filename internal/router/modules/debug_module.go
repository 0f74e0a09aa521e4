package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-user-directory/internal/interface/middleware"
)

type DebugModule struct {
	Redis     *redis.Client
	PerMinute int
}

func NewDebugModule(rdb *redis.Client, perMinute int) *DebugModule {
	return &DebugModule{Redis: rdb, PerMinute: perMinute}
}

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	// Public metrics endpoint (expvar), rate-limited per IP
	rl := middleware.RateLimit(m.Redis, m.PerMinute, time.Minute, middleware.KeyByIP(), nil)
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
}
