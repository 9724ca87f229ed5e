// cmd/api/main.go
package main

import (
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	inventoryURL, _ := url.Parse(getEnv("INVENTORY_SERVICE_URL", "http://localhost:8082"))
	bookingURL, _ := url.Parse(getEnv("BOOKING_SERVICE_URL", "http://localhost:8083"))
	paymentURL, _ := url.Parse(getEnv("PAYMENT_SERVICE_URL", "http://localhost:8084"))

	inventoryProxy := httputil.NewSingleHostReverseProxy(inventoryURL)
	bookingProxy := httputil.NewSingleHostReverseProxy(bookingURL)
	paymentProxy := httputil.NewSingleHostReverseProxy(paymentURL)

	// The inventory service also hosts the promotion ledger; the wallet
	// service is internal-only and deliberately not exposed here.
	http.Handle("/api/v1/inventory/", http.StripPrefix("/api/v1", inventoryProxy))
	http.Handle("/api/v1/promotions/", http.StripPrefix("/api/v1", inventoryProxy))
	http.Handle("/api/v1/bookings/", http.StripPrefix("/api/v1", bookingProxy))
	http.Handle("/api/v1/payment/", http.StripPrefix("/api/v1", paymentProxy))

	port := getEnv("PORT", "8080")
	log.Printf("API Gateway listening on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, nil))
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
