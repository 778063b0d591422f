package backup

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/healink/healink/internal/database"
)

type fakeS3 struct {
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(input.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(input.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(input.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{}
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(input.Prefix)) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
		}
	}
	return out, nil
}

func newTestManager(t *testing.T) (*Manager, *fakeS3) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "registry.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	fake := newFakeS3()
	m := NewManager(Config{
		S3:            S3Config{Bucket: "b", AccessKey: "k", SecretKey: "s"},
		DBPath:        dbPath,
		Passphrase:    "test-passphrase",
		RetentionDays: 30,
	}, db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.client = fake
	return m, fake
}

func TestSnapshotUploadsEncrypted(t *testing.T) {
	m, fake := newTestManager(t)

	key, err := m.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if !strings.HasPrefix(key, "backups/") || !strings.HasSuffix(key, ".db.enc") {
		t.Errorf("unexpected snapshot key %q", key)
	}

	sealed, ok := fake.objects[key]
	if !ok {
		t.Fatal("snapshot object not uploaded")
	}
	// SQLite files start with a fixed header; the upload must not.
	if bytes.HasPrefix(sealed, []byte("SQLite format 3")) {
		t.Error("uploaded snapshot is not encrypted")
	}
	if _, err := Decrypt(sealed, "test-passphrase"); err != nil {
		t.Errorf("uploaded snapshot does not decrypt: %v", err)
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	m, _ := newTestManager(t)

	key, err := m.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}

	dst := filepath.Join(t.TempDir(), "restored.db")
	if err := m.Restore(context.Background(), key, dst); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	db, err := database.Open(dst)
	if err != nil {
		t.Fatalf("restored database does not open: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM clients").Scan(&n); err != nil {
		t.Errorf("restored database missing schema: %v", err)
	}
}

func TestCleanupDeletesExpired(t *testing.T) {
	m, fake := newTestManager(t)
	m.now = func() time.Time {
		return time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC)
	}

	fake.objects["backups/2024-01-01T030000Z.db.enc"] = []byte("old")
	fake.objects["backups/2024-02-28T030000Z.db.enc"] = []byte("recent")

	if err := m.cleanup(context.Background()); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}

	if _, ok := fake.objects["backups/2024-01-01T030000Z.db.enc"]; ok {
		t.Error("expired snapshot should be deleted")
	}
	if _, ok := fake.objects["backups/2024-02-28T030000Z.db.enc"]; !ok {
		t.Error("recent snapshot should be kept")
	}
}

func TestSnapshotDisabled(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "registry.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	defer db.Close()

	m := NewManager(Config{DBPath: dbPath}, db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if m.Enabled() {
		t.Error("manager without credentials should be disabled")
	}
	if _, err := m.Snapshot(context.Background()); err == nil {
		t.Error("snapshot on disabled manager should fail")
	}
}
