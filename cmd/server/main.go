package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	nocturne "github.com/taboocollar/whole-life-inc"
	"github.com/taboocollar/whole-life-inc/api"
	"github.com/taboocollar/whole-life-inc/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[Server] no .env file found, using environment")
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("[Server] config: %v", err)
	}

	opts := []nocturne.Option{}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("[Server] redis ping: %v", err)
		}
		opts = append(opts, nocturne.WithProfileStore(store.NewRedisProfileStore(client)))
		log.Printf("[Server] using redis profile store at %s", addr)
	}
	if seed := os.Getenv("RAND_SEED"); seed != "" {
		n, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			log.Fatalf("[Server] invalid RAND_SEED: %v", err)
		}
		opts = append(opts, nocturne.WithRandSeed(n))
	}

	engine, err := nocturne.NewEngine(cfg, opts...)
	if err != nil {
		log.Fatalf("[Server] engine: %v", err)
	}

	addr := ":" + envOr("PORT", "8080")
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewServer(engine).Router(),
	}

	go func() {
		log.Printf("[Server] listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[Server] listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[Server] shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[Server] shutdown: %v", err)
	}
	log.Println("[Server] stopped")
}

func loadConfig() (*nocturne.Config, error) {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return nocturne.LoadConfig(path)
	}
	return nocturne.DefaultConfig(), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
