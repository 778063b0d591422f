// Package plan holds the static communication plan for the 30-day healing
// window: which channels are due on which day offsets, and the push message
// content for each day. Pure data, no side effects.
package plan

import "time"

// Healing window processed by the daily run. Day 0 is handled synchronously
// by the artist-facing registration flow; after day 30 the client is
// considered healed and silently skipped.
const (
	MinDay = 1
	MaxDay = 30
)

// DayOffset returns the whole number of calendar days between the tattoo
// date and today. Both arguments are reduced to their date components
// before subtracting, so the result is insensitive to time of day and DST:
// two runs on the same calendar date always agree.
func DayOffset(tattooDate, today time.Time) int {
	a := midnightUTC(tattooDate)
	b := midnightUTC(today)
	return int(b.Sub(a).Hours() / 24)
}

// InWindow reports whether a day offset falls inside the scheduled window.
func InWindow(day int) bool {
	return day >= MinDay && day <= MaxDay
}

// emailDays lists the offsets with a configured aftercare email.
// Day 0 (welcome + setup link) is sent at registration, not by the run.
var emailDays = map[int]bool{1: true, 3: true, 5: true, 7: true, 30: true}

// EmailDue reports whether an aftercare email is scheduled for the day.
func EmailDue(day int) bool {
	return emailDays[day]
}

// PushMessage is the title/body pair delivered over the push channel.
type PushMessage struct {
	Title string
	Body  string
}

var pushMessages = map[int]PushMessage{
	1:  {"Day 1 Check-in", "Keep washing your tattoo 2-3 times today with lukewarm water"},
	2:  {"Day 2 Reminder", "Inflammation is normal. Keep washing gently"},
	3:  {"Day 3: Start Moisturizing", "Apply a thin layer of unscented lotion 2-3x daily"},
	4:  {"Moisturize Reminder", "Skin feeling tight? Time to moisturize"},
	5:  {"Day 5: Itching Phase", "Tap, don't scratch! The itch means it's healing"},
	6:  {"Evening Reminder", "Don't scratch in your sleep tonight. Keep hands clean"},
	7:  {"Week 1 Complete!", "You survived the critical week. Keep up the care"},
	10: {"Peeling is Normal", "Let flakes fall naturally. Don't pick at them"},
	14: {"Halfway Healed", "You're halfway there! Color will brighten soon"},
	21: {"Almost Healed", "Surface healed, but keep protecting from sun"},
	30: {"Fully Healed!", "Your tattoo is permanent. Enjoy your new art"},
}

// PushMessageFor returns the push content for the day, if any is scheduled.
func PushMessageFor(day int) (PushMessage, bool) {
	m, ok := pushMessages[day]
	return m, ok
}

var photoMessages = map[int]PushMessage{
	3:  {"Photo Check-in", "Snap a quick photo so your artist can see the early healing"},
	7:  {"Week 1 Photo", "One week in! Upload a photo to track your progress"},
	14: {"Halfway Photo", "Add a photo to your healing timeline"},
	30: {"Final Photo", "Fully healed. Upload the finished result!"},
}

// PhotoReminderFor returns the photo check-in reminder for the day, if one
// is scheduled. Photo reminders share the push transport but are a distinct
// communication type with their own delivery tracking.
func PhotoReminderFor(day int) (PushMessage, bool) {
	m, ok := photoMessages[day]
	return m, ok
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
