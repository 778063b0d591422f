// Command aftercare executes a single daily aftercare run and exits.
// It exists for cron-style deployments where the long-running server's
// internal scheduler is not wanted.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/healink/healink/internal/aftercare"
	"github.com/healink/healink/internal/database"
	"github.com/healink/healink/internal/email"
	"github.com/healink/healink/internal/logging"
	"github.com/healink/healink/internal/push"
	"github.com/healink/healink/internal/store"
)

func main() {
	logger := logging.Setup(os.Getenv("HEALINK_LOG_LEVEL"))

	dbPath := os.Getenv("HEALINK_DB_PATH")
	if dbPath == "" {
		dbPath = "healink.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	emailClient := email.NewClient(
		os.Getenv("POSTMARK_SERVER_TOKEN"),
		os.Getenv("HEALINK_FROM_EMAIL"),
	)

	pushSvc := push.NewService(push.Config{
		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		Subscriber:      os.Getenv("VAPID_SUBSCRIBER"),
	})

	loc, err := time.LoadLocation(envOr("HEALINK_TIMEZONE", "UTC"))
	if err != nil {
		log.Fatalf("invalid timezone: %v", err)
	}
	runHour, _ := strconv.Atoi(envOr("HEALINK_RUN_HOUR", "9"))

	baseURL := envOr("HEALINK_BASE_URL", "http://localhost:8080")
	cfg := aftercare.Config{
		EmailTemplates: map[int]string{
			1:  "aftercare-day-1",
			3:  "aftercare-day-3",
			5:  "aftercare-day-5",
			7:  "aftercare-day-7",
			30: "aftercare-day-30",
		},
		DashboardURL: baseURL + "/care",
		Location:     loc,
		RunHour:      runHour,
	}

	runner := aftercare.NewRunner(
		store.NewClientStore(db),
		store.NewArtistStore(db),
		store.NewDeliveryStore(db),
		store.NewRunStore(db),
		emailClient,
		pushSvc,
		cfg,
		logger.With("component", "aftercare"),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	summary, err := runner.Run(ctx)
	out, _ := json.Marshal(summary)
	fmt.Println(string(out))
	if err != nil {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
