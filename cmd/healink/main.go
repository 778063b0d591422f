package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/healink/healink/internal/aftercare"
	"github.com/healink/healink/internal/backup"
	"github.com/healink/healink/internal/database"
	"github.com/healink/healink/internal/email"
	"github.com/healink/healink/internal/logging"
	"github.com/healink/healink/internal/photos"
	"github.com/healink/healink/internal/push"
	"github.com/healink/healink/internal/server"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "generate-vapid-keys" {
		pub, priv, err := push.GenerateVAPIDKeys()
		if err != nil {
			log.Fatalf("failed to generate VAPID keys: %v", err)
		}
		fmt.Printf("VAPID_PUBLIC_KEY=%s\nVAPID_PRIVATE_KEY=%s\n", pub, priv)
		return
	}

	logger := logging.Setup(os.Getenv("HEALINK_LOG_LEVEL"))

	port := envOr("HEALINK_PORT", "8080")
	dbPath := envOr("HEALINK_DB_PATH", "healink.db")
	baseURL := envOr("HEALINK_BASE_URL", "http://localhost:"+port)

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	emailClient := email.NewClient(
		os.Getenv("POSTMARK_SERVER_TOKEN"),
		envOr("HEALINK_FROM_EMAIL", "care@healink.app"),
	)

	pushSvc := push.NewService(push.Config{
		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		Subscriber:      envOr("VAPID_SUBSCRIBER", "mailto:care@healink.app"),
	})

	storage := photos.NewStorage(photos.Config{
		Endpoint:  os.Getenv("HEALINK_S3_ENDPOINT"),
		Bucket:    os.Getenv("HEALINK_S3_BUCKET"),
		Region:    envOr("HEALINK_S3_REGION", "auto"),
		AccessKey: os.Getenv("HEALINK_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("HEALINK_S3_SECRET_KEY"),
	})

	backupHour, err := strconv.Atoi(envOr("HEALINK_BACKUP_HOUR", "3"))
	if err != nil || backupHour < 0 || backupHour > 23 {
		log.Fatalf("HEALINK_BACKUP_HOUR must be 0-23")
	}
	backupMgr := backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  os.Getenv("HEALINK_S3_ENDPOINT"),
			Bucket:    os.Getenv("HEALINK_S3_BUCKET"),
			Region:    envOr("HEALINK_S3_REGION", "auto"),
			AccessKey: os.Getenv("HEALINK_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("HEALINK_S3_SECRET_KEY"),
		},
		DBPath:     dbPath,
		Passphrase: os.Getenv("HEALINK_BACKUP_PASSPHRASE"),
		Hour:       backupHour,
	}, db, logger.With("component", "backup"))

	runCfg, err := runConfig(baseURL)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	srv := server.New(db, emailClient, pushSvc, storage, runCfg, server.Config{
		BaseURL:     baseURL,
		SetupSecret: os.Getenv("HEALINK_SETUP_SECRET"),
		SetupTTL:    7 * 24 * time.Hour,
	}, logger)

	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	srv.Scheduler().Start(schedCtx)
	backupMgr.Start(schedCtx)

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-schedCtx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("healink running", "addr", "http://localhost:"+port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	srv.Scheduler().Stop()
	backupMgr.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

// runConfig assembles the daily run settings from the environment.
func runConfig(baseURL string) (aftercare.Config, error) {
	loc, err := time.LoadLocation(envOr("HEALINK_TIMEZONE", "UTC"))
	if err != nil {
		return aftercare.Config{}, fmt.Errorf("load timezone: %w", err)
	}

	runHour, err := strconv.Atoi(envOr("HEALINK_RUN_HOUR", "9"))
	if err != nil || runHour < 0 || runHour > 23 {
		return aftercare.Config{}, fmt.Errorf("HEALINK_RUN_HOUR must be 0-23")
	}

	return aftercare.Config{
		EmailTemplates: emailTemplates(),
		DashboardURL:   baseURL + "/care",
		Location:       loc,
		RunHour:        runHour,
	}, nil
}

// emailTemplates maps day offsets to Postmark template aliases. Day 0 is
// the welcome email sent at registration.
func emailTemplates() map[int]string {
	templates := map[int]string{
		0:  envOr("HEALINK_TEMPLATE_WELCOME", "aftercare-welcome"),
		1:  "aftercare-day-1",
		3:  "aftercare-day-3",
		5:  "aftercare-day-5",
		7:  "aftercare-day-7",
		30: "aftercare-day-30",
	}
	for day := range templates {
		if day == 0 {
			continue
		}
		if v := os.Getenv(fmt.Sprintf("HEALINK_TEMPLATE_DAY_%d", day)); v != "" {
			templates[day] = v
		}
	}
	return templates
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
