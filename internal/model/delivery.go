package model

import "time"

// Delivery channels. A (client, channel, day offset) triple is dispatched
// at most once; the deliveries table enforces it with a unique index.
// Photo reminders ride the push transport but are tracked under their own
// channel key so they never suppress or double-count the day-based pushes.
const (
	ChannelEmail         = "email"
	ChannelPush          = "push"
	ChannelPhotoReminder = "photo_reminder"
)

// Delivery records one sent communication. Its presence is the
// idempotency marker for that client/channel/day.
type Delivery struct {
	ID        int64     `json:"id"`
	ClientID  string    `json:"client_id"`
	Channel   string    `json:"channel"`
	DayOffset int       `json:"day_offset"`
	SentAt    time.Time `json:"sent_at"`
}
