package main

import (
	"context"
	"errors"
	"log"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-directory/config"
	"github.com/oksasatya/go-user-directory/internal/container"
	"github.com/oksasatya/go-user-directory/internal/domain/entity"
	"github.com/oksasatya/go-user-directory/internal/domain/repository"
	"github.com/oksasatya/go-user-directory/pkg/helpers"
)

func strptr(s string) *string { return &s }

var demoUsers = []entity.NewUser{
	{Email: "ada@example.com", Name: strptr("Ada Lovelace")},
	{Email: "grace@example.com", Name: strptr("Grace Hopper"), AvatarURL: strptr("https://example.com/grace.png")},
	{Email: "linus@example.com"},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)

	ctx := context.Background()
	c, err := container.New(ctx, cfg, logger, container.Options{})
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer c.Close()

	created := 0
	for _, nu := range demoUsers {
		u, err := c.Users.Insert(ctx, nu)
		if errors.Is(err, repository.ErrEmailTaken) {
			logger.WithField("email", nu.Email).Info("already seeded")
			continue
		}
		if err != nil {
			helpers.LogError(logger, "seed user failed", err, logrus.Fields{"email": nu.Email})
			continue
		}
		created++
		logger.WithFields(logrus.Fields{"user_id": u.ID, "email": u.Email}).Info("seeded user")
	}
	logger.WithField("created", created).Info("seed finished")
}
