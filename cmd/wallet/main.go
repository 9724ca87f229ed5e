// cmd/wallet/main.go
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
	"golang.org/x/sync/errgroup"

	"gotripviet/internal/auth"
	"gotripviet/internal/platform/database"
	"gotripviet/internal/wallet"
)

func main() {
	godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	if err := wallet.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("wallet schema: %v", err)
	}

	internal := auth.RequireInternalKey(getEnv("INTERNAL_API_KEY", "dev-internal-key"))
	service := wallet.NewService(db)

	r := chi.NewRouter()
	r.Mount("/wallet", wallet.NewHandler(service).Routes(internal))

	server := &http.Server{
		Addr:    ":" + getEnv("PORT", "8085"),
		Handler: r,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("wallet service listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Fatalf("wallet service stopped: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
