package model

import "time"

// Artist is the studio-side account that owns clients.
type Artist struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StudioName string    `json:"studio_name"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"created_at"`
}

// DisplayName returns the name substituted into client-facing emails:
// studio name first, personal name second, generic placeholder last.
func (a *Artist) DisplayName() string {
	if a.StudioName != "" {
		return a.StudioName
	}
	if a.Name != "" {
		return a.Name
	}
	return "Your Artist"
}
