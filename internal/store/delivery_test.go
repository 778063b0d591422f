package store

import (
	"testing"
	"time"

	"github.com/healink/healink/internal/model"
)

func TestDeliveryMarkAndCheck(t *testing.T) {
	db := setupTestDB(t)
	artistID := createTestArtist(t, db)
	cs := NewClientStore(db)
	ds := NewDeliveryStore(db)

	c, _ := cs.Create(artistID, "Ana", "ana@example.com", nil)

	sent, err := ds.WasSent(c.ID, model.ChannelEmail, 7)
	if err != nil {
		t.Fatalf("was sent: %v", err)
	}
	if sent {
		t.Error("expected no marker before send")
	}

	if err := ds.MarkSent(c.ID, model.ChannelEmail, 7, time.Now()); err != nil {
		t.Fatalf("mark sent: %v", err)
	}

	sent, _ = ds.WasSent(c.ID, model.ChannelEmail, 7)
	if !sent {
		t.Error("expected marker after send")
	}
}

func TestDeliveryMarkSentIdempotent(t *testing.T) {
	db := setupTestDB(t)
	artistID := createTestArtist(t, db)
	cs := NewClientStore(db)
	ds := NewDeliveryStore(db)

	c, _ := cs.Create(artistID, "Ana", "ana@example.com", nil)

	if err := ds.MarkSent(c.ID, model.ChannelPush, 3, time.Now()); err != nil {
		t.Fatalf("first mark: %v", err)
	}
	// Second marker for the same triple must be a silent no-op
	if err := ds.MarkSent(c.ID, model.ChannelPush, 3, time.Now()); err != nil {
		t.Fatalf("second mark: %v", err)
	}

	deliveries, err := ds.ListByClient(c.ID)
	if err != nil {
		t.Fatalf("list deliveries: %v", err)
	}
	if len(deliveries) != 1 {
		t.Errorf("len = %d, want 1", len(deliveries))
	}
}

func TestDeliveryChannelsTrackedSeparately(t *testing.T) {
	db := setupTestDB(t)
	artistID := createTestArtist(t, db)
	cs := NewClientStore(db)
	ds := NewDeliveryStore(db)

	c, _ := cs.Create(artistID, "Ana", "ana@example.com", nil)

	ds.MarkSent(c.ID, model.ChannelPush, 7, time.Now())

	// A day-7 push marker must not suppress the day-7 photo reminder
	sent, _ := ds.WasSent(c.ID, model.ChannelPhotoReminder, 7)
	if sent {
		t.Error("photo reminder marker should be independent of push marker")
	}

	ds.MarkSent(c.ID, model.ChannelPhotoReminder, 7, time.Now())

	deliveries, _ := ds.ListByClient(c.ID)
	if len(deliveries) != 2 {
		t.Errorf("len = %d, want 2", len(deliveries))
	}
}
