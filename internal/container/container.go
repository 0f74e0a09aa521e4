package container

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-directory/config"
	"github.com/oksasatya/go-user-directory/internal/application"
	"github.com/oksasatya/go-user-directory/internal/domain/repository"
	pginfra "github.com/oksasatya/go-user-directory/internal/infrastructure/postgres"
	sqliteinfra "github.com/oksasatya/go-user-directory/internal/infrastructure/sqlite"
	"github.com/oksasatya/go-user-directory/pkg/helpers"
)

// Container holds the process-wide components built at startup.
// It is passed explicitly to the router; nothing here is global.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger

	PGPool *pgxpool.Pool // set when DB_DRIVER=postgres
	SQLite *sql.DB       // set when DB_DRIVER=sqlite
	Redis  *redis.Client // nil when REDIS_ADDR is empty
	Events *helpers.RabbitPublisher

	Users repository.UserRepository
}

// Options select which optional infrastructure New builds.
type Options struct {
	WithRedis  bool
	WithEvents bool
}

// New connects the store (running migrations) and the optional Redis and RabbitMQ clients.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger, opts Options) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	if err := c.openStore(ctx); err != nil {
		c.Close()
		return nil, err
	}

	if opts.WithRedis {
		c.Redis = helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	}

	if opts.WithEvents && cfg.EventsEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQUserEventQueue)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		c.Events = pub
		logger.WithField("queue", cfg.RabbitMQUserEventQueue).Info("user events enabled")
	}

	return c, nil
}

func (c *Container) openStore(ctx context.Context) error {
	cfg := c.Config
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{
			MaxConns:    cfg.DBMaxConns,
			MinConns:    cfg.DBMinConns,
			MaxConnLife: cfg.DBMaxConnLife,
		})
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		c.PGPool = pool
		if err := pginfra.Migrate(cfg.PostgresDSN(), cfg.MigrationsDir, c.Logger); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
		c.Users = pginfra.NewUserRepository(pool)
	case config.DriverSQLite:
		db, err := sqliteinfra.New(ctx, cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		c.SQLite = db
		if err := sqliteinfra.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
		c.Users = sqliteinfra.NewUserRepository(db)
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	c.Logger.WithField("driver", cfg.DBDriver).Info("user store ready")
	return nil
}

// UserService wires the application service; a nil publisher stays an untyped nil.
func (c *Container) UserService() *application.Service {
	var pub application.EventPublisher
	if c.Events != nil {
		pub = c.Events
	}
	return application.NewService(c.Users, pub, c.Logger)
}

// PingStore checks the configured database.
func (c *Container) PingStore(ctx context.Context) error {
	switch {
	case c.PGPool != nil:
		return c.PGPool.Ping(ctx)
	case c.SQLite != nil:
		return c.SQLite.PingContext(ctx)
	}
	return fmt.Errorf("no store configured")
}

// PingRedis returns nil when redis is disabled.
func (c *Container) PingRedis(ctx context.Context) error {
	if c.Redis == nil {
		return nil
	}
	return c.Redis.Ping(ctx).Err()
}

// Close releases everything New opened; it is safe on a partially built container.
func (c *Container) Close() {
	if c.Events != nil {
		c.Events.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.PGPool != nil {
		c.PGPool.Close()
	}
	if c.SQLite != nil {
		_ = c.SQLite.Close()
	}
}
