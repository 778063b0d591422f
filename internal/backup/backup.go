// Package backup takes nightly encrypted snapshots of the client
// registry database and ships them to S3-compatible storage. The
// registry holds client contact details, so snapshots are always
// encrypted before they leave the host.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const keyPrefix = "backups/"

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Config holds snapshot settings. With an empty passphrase or
// incomplete S3 credentials the manager stays disabled.
type Config struct {
	S3            S3Config
	DBPath        string
	Passphrase    string
	Hour          int
	RetentionDays int
}

// Manager runs the snapshot schedule.
type Manager struct {
	mu     sync.Mutex
	cfg    Config
	db     *sql.DB
	client s3Client
	logger *slog.Logger
	now    func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager(cfg Config, db *sql.DB, logger *slog.Logger) *Manager {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	m := &Manager{cfg: cfg, db: db, logger: logger, now: time.Now}
	if cfg.Passphrase != "" && cfg.S3.Bucket != "" && cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" {
		m.client = newS3Client(cfg.S3)
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether snapshots are configured.
func (m *Manager) Enabled() bool {
	return m.client != nil
}

// Start begins the snapshot loop. It is a no-op when disabled.
func (m *Manager) Start(ctx context.Context) {
	if !m.Enabled() {
		return
	}

	m.mu.Lock()
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				now := m.now().UTC()
				if now.Hour() != m.cfg.Hour || now.Minute() != 0 {
					continue
				}
				if _, err := m.Snapshot(ctx); err != nil {
					m.logger.Error("scheduled snapshot", "error", err)
					continue
				}
				if err := m.cleanup(ctx); err != nil {
					m.logger.Error("snapshot cleanup", "error", err)
				}
			}
		}
	}()
}

// Stop halts the snapshot loop and waits for it to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Snapshot checkpoints the database, encrypts a copy, and uploads it.
// It returns the object key of the uploaded snapshot.
func (m *Manager) Snapshot(ctx context.Context) (string, error) {
	if !m.Enabled() {
		return "", fmt.Errorf("snapshots not configured")
	}

	// Flush the WAL so the file on disk is the full database.
	if _, err := m.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return "", fmt.Errorf("wal checkpoint: %w", err)
	}

	plaintext, err := os.ReadFile(m.cfg.DBPath)
	if err != nil {
		return "", fmt.Errorf("read database: %w", err)
	}

	sealed, err := Encrypt(plaintext, m.cfg.Passphrase)
	if err != nil {
		return "", fmt.Errorf("encrypt snapshot: %w", err)
	}

	key := keyPrefix + m.now().UTC().Format("2006-01-02T150405Z") + ".db.enc"
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.cfg.S3.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(int64(len(sealed))),
	})
	if err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}

	m.logger.Info("snapshot uploaded", "key", key, "bytes", len(sealed))
	return key, nil
}

// Restore downloads a snapshot, decrypts it, verifies integrity, and
// writes it to dstPath. The caller restarts the service against the
// restored file.
func (m *Manager) Restore(ctx context.Context, key, dstPath string) error {
	if !m.Enabled() {
		return fmt.Errorf("snapshots not configured")
	}

	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.cfg.S3.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download snapshot: %w", err)
	}
	defer out.Body.Close()

	sealed, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	plaintext, err := Decrypt(sealed, m.cfg.Passphrase)
	if err != nil {
		return fmt.Errorf("decrypt snapshot: %w", err)
	}

	tmp := dstPath + ".restore"
	if err := os.WriteFile(tmp, plaintext, 0600); err != nil {
		return fmt.Errorf("write restored database: %w", err)
	}
	defer os.Remove(tmp)

	if err := verifyIntegrity(tmp); err != nil {
		return err
	}

	if err := os.Rename(tmp, dstPath); err != nil {
		return fmt.Errorf("replace database: %w", err)
	}
	os.Remove(dstPath + "-wal")
	os.Remove(dstPath + "-shm")
	return nil
}

func verifyIntegrity(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open restored db: %w", err)
	}
	defer db.Close()

	var integrity string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&integrity); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if integrity != "ok" {
		return fmt.Errorf("integrity check failed: %s", integrity)
	}
	return nil
}

// cleanup deletes snapshots past the retention window. Snapshot keys
// embed their timestamp, so age comes from the key itself.
func (m *Manager) cleanup(ctx context.Context) error {
	out, err := m.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(m.cfg.S3.Bucket),
		Prefix: aws.String(keyPrefix),
	})
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}

	cutoff := m.now().UTC().AddDate(0, 0, -m.cfg.RetentionDays)
	for _, obj := range out.Contents {
		key := aws.ToString(obj.Key)
		stamp := strings.TrimSuffix(strings.TrimPrefix(key, keyPrefix), ".db.enc")
		taken, err := time.Parse("2006-01-02T150405Z", stamp)
		if err != nil || !taken.Before(cutoff) {
			continue
		}
		if _, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.cfg.S3.Bucket),
			Key:    aws.String(key),
		}); err != nil {
			m.logger.Error("delete expired snapshot", "key", key, "error", err)
		}
	}
	return nil
}
