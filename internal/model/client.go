package model

import "time"

// Client roles. Only records with RoleClient are eligible for the daily
// aftercare run; artists live in their own table but the discriminator is
// kept so imported registries with mixed records stay filterable.
const (
	RoleClient = "client"
)

// Client is one person healing a tattoo. TattooDate is a calendar date
// (no time component) marking Day 0 of the healing window.
type Client struct {
	ID            string     `json:"id"`
	ArtistID      string     `json:"artist_id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	SetupComplete bool       `json:"setup_complete"`
	TattooDate    *time.Time `json:"tattoo_date,omitempty"`
	PushEndpoint  string     `json:"-"`
	PushP256dh    string     `json:"-"`
	PushAuth      string     `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
}

// HasPushSubscription reports whether the client has opted in to push.
func (c *Client) HasPushSubscription() bool {
	return c.PushEndpoint != ""
}
