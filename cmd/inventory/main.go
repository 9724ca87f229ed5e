// cmd/inventory/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"gotripviet/internal/auth"
	"gotripviet/internal/inventory"
	"gotripviet/internal/platform/database"
	"gotripviet/internal/platform/tracing"
	"gotripviet/internal/promotion"
)

func main() {
	godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, "inventory-service")
	if err != nil {
		log.Fatalf("tracing init: %v", err)
	}
	defer shutdownTracing(context.Background())

	db, err := database.Connect(database.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "gotripviet"),
		Password: getEnv("DB_PASSWORD", "gotripviet"),
		DBName:   getEnv("DB_NAME", "gotripviet"),
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	if err := inventory.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("inventory schema: %v", err)
	}
	if err := promotion.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("promotion schema: %v", err)
	}

	var cache *redis.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cache = redis.NewClient(&redis.Options{Addr: addr})
		defer cache.Close()
	}

	jwtSecret := getEnv("JWT_SECRET", "dev-secret")
	internalKey := getEnv("INTERNAL_API_KEY", "dev-internal-key")

	user := auth.RequireUser(jwtSecret)
	admin := auth.Chain(user, auth.RequireRole("admin"))
	internal := auth.RequireInternalKey(internalKey)

	invService := inventory.NewService(inventory.NewPostgresStore(db), cache)
	promoService := promotion.NewService(promotion.NewPostgresStore(db))

	r := chi.NewRouter()
	r.Mount("/inventory", inventory.NewHandler(invService).Routes(admin, internal))
	r.Mount("/promotions", promotion.NewHandler(promoService).Routes(admin, internal))

	server := &http.Server{
		Addr:    ":" + getEnv("PORT", "8082"),
		Handler: r,
	}

	syncInterval, err := time.ParseDuration(getEnv("PRICE_SYNC_INTERVAL", "1h"))
	if err != nil {
		log.Fatalf("invalid PRICE_SYNC_INTERVAL: %v", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("inventory service listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		inventory.RunPriceSync(ctx, invService, syncInterval)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Fatalf("inventory service stopped: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
