// cmd/booking/main.go
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
	"gotripviet/internal/booking"
	"gotripviet/internal/clients"
	"gotripviet/internal/platform/database"
	"gotripviet/internal/platform/tracing"
)

func main() {
	godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, "booking-service")
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

	if err := booking.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("booking schema: %v", err)
	}

	internalKey := getEnv("INTERNAL_API_KEY", "dev-internal-key")
	catalogURL := getEnv("CATALOG_SERVICE_URL", "http://localhost:8081")
	inventoryURL := getEnv("INVENTORY_SERVICE_URL", "http://localhost:8082")
	paymentURL := getEnv("PAYMENT_SERVICE_URL", "http://localhost:8084")
	notifierURL := os.Getenv("NOTIFIER_SERVICE_URL")

	service := booking.NewService(
		booking.NewPostgresStore(db),
		clients.NewCatalogClient(catalogURL, internalKey),
		clients.NewInventoryClient(inventoryURL, internalKey),
		clients.NewPromotionClient(inventoryURL, internalKey),
		clients.NewPaymentClient(paymentURL, internalKey),
		clients.NewSettlementClient(paymentURL, internalKey),
		clients.NewNotifierClient(notifierURL, internalKey),
	)

	jwtSecret := getEnv("JWT_SECRET", "dev-secret")
	user := auth.RequireUser(jwtSecret)
	admin := auth.Chain(user, auth.RequireRole("admin"))
	partner := auth.Chain(user, auth.RequireRole("partner"))
	internal := auth.RequireInternalKey(internalKey)

	r := chi.NewRouter()
	r.Mount("/bookings", booking.NewHandler(service).Routes(user, admin, partner, internal))

	server := &http.Server{
		Addr:    ":" + getEnv("PORT", "8083"),
		Handler: r,
	}

	scanInterval, err := time.ParseDuration(getEnv("COMPLETION_SCAN_INTERVAL", "1h"))
	if err != nil {
		log.Fatalf("invalid COMPLETION_SCAN_INTERVAL: %v", err)
	}
	scanner := booking.NewScanner(service, scanInterval)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("booking service listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := scanner.Run(ctx); err != context.Canceled {
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
		log.Fatalf("booking service stopped: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
