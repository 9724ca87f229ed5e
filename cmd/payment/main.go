// cmd/payment/main.go
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

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"gotripviet/internal/auth"
	"gotripviet/internal/clients"
	"gotripviet/internal/payment"
	"gotripviet/internal/platform/database"
	"gotripviet/internal/platform/tracing"
	"gotripviet/internal/settlement"
)

func main() {
	godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, "payment-service")
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

	if err := payment.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("payment schema: %v", err)
	}
	if err := settlement.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("settlement schema: %v", err)
	}

	internalKey := getEnv("INTERNAL_API_KEY", "dev-internal-key")
	bookingURL := getEnv("BOOKING_SERVICE_URL", "http://localhost:8083")
	walletURL := getEnv("WALLET_SERVICE_URL", "http://localhost:8085")

	commissionRate, err := strconv.ParseFloat(getEnv("COMMISSION_RATE", "0.15"), 64)
	if err != nil {
		log.Fatalf("invalid COMMISSION_RATE: %v", err)
	}

	walletClient := clients.NewWalletClient(walletURL, internalKey)
	settlementService := settlement.NewService(settlement.NewPostgresLedger(db), walletClient, commissionRate)

	paymentService := payment.NewService(
		payment.NewPostgresStore(db),
		clients.NewBookingClient(bookingURL, internalKey),
		settlementService,
		payment.GatewayConfig{
			TmnCode:    getEnv("VNP_TMN_CODE", ""),
			HashSecret: getEnv("VNP_HASH_SECRET", ""),
			PayURL:     getEnv("VNP_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
			ReturnURL:  getEnv("VNP_RETURN_URL", "http://localhost:8080/api/v1/payment/vnpay-return"),
		},
	)

	jwtSecret := getEnv("JWT_SECRET", "dev-secret")
	user := auth.RequireUser(jwtSecret)
	admin := auth.Chain(user, auth.RequireRole("admin"))
	internal := auth.RequireInternalKey(internalKey)

	paymentRoutes := payment.NewHandler(paymentService).Routes(admin, internal)
	settlement.NewHandler(settlementService).Register(paymentRoutes, user, internal)

	r := chi.NewRouter()
	r.Mount("/payment", paymentRoutes)

	server := &http.Server{
		Addr:    ":" + getEnv("PORT", "8084"),
		Handler: r,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("payment service listening on %s", server.Addr)
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
		log.Fatalf("payment service stopped: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
