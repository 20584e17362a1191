package main

import (
	"context"
	"fmt"
	"log"

	"besaha/internal/app"
	"besaha/internal/config"
	"besaha/internal/database"
	"besaha/internal/domain/chat"
	"besaha/internal/domain/restaurant"
	"besaha/internal/domain/user"
	"besaha/internal/pkg/jwt"
	"besaha/internal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zlog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	ctx := context.Background()

	db, err := database.Connect(cfg.DatabaseURL, zlog)
	if err != nil {
		zlog.Fatalw("db connect failed", "error", err)
	}
	if err := database.Migrate(db, app.Models()...); err != nil {
		zlog.Fatalw("migrate failed", "error", err)
	}

	n, err := restaurant.Seed(ctx, restaurant.NewRepository(db))
	if err != nil {
		zlog.Fatalw("seed restaurants", "error", err)
	}
	zlog.Infow("restaurants seeded", "count", n)

	users, err := user.Seed(ctx, user.NewRepository(db))
	if err != nil {
		zlog.Fatalw("seed users", "error", err)
	}
	zlog.Infow("users seeded", "count", len(users))

	msgs, err := chat.Seed(ctx, chat.NewRepository(db))
	if err != nil {
		zlog.Fatalw("seed chat", "error", err)
	}
	zlog.Infow("chat messages seeded", "inserted", msgs)

	if cfg.AppEnv != "dev" {
		return
	}

	// dev tokens for trying the API by hand
	j := jwt.New(cfg.JWTSecret, cfg.JWTTTL)
	for _, u := range users {
		tok, err := j.GenerateToken(u.ID, u.Name, u.Role)
		if err != nil {
			zlog.Fatalw("generate token", "user_id", u.ID, "error", err)
		}
		fmt.Printf("%-14s %-6s %s\n", u.Name, u.Role, tok)
	}
}
