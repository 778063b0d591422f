// Package aftercare implements the daily aftercare run: enumerate eligible
// clients, compute each one's healing-day offset, and dispatch whatever the
// communication plan says is due, exactly once per client per day.
package aftercare

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/healink/healink/internal/model"
	"github.com/healink/healink/internal/plan"
	"github.com/healink/healink/internal/push"
	"github.com/healink/healink/internal/store"
)

// EmailSender is the templated email channel consumed by the run.
type EmailSender interface {
	SendTemplate(ctx context.Context, toEmail, templateAlias string, model map[string]any) error
}

// PushSender is the web push channel consumed by the run. Implementations
// return push.ErrExpired when the subscription is permanently invalid.
type PushSender interface {
	Send(sub push.Subscription, payload push.Payload) error
}

// Config holds everything the run needs beyond its collaborators. It is
// assembled once at startup and passed in explicitly; the run never reads
// ambient global state.
type Config struct {
	// EmailTemplates maps day offsets to template aliases. Day 0 is used
	// by the registration flow, days 1/3/5/7/30 by the daily run.
	EmailTemplates map[int]string
	// DashboardURL is the client dashboard link embedded in emails and
	// push payloads.
	DashboardURL string
	// Location is the service reference timezone for day arithmetic.
	Location *time.Location
	// RunHour is the local wall-clock hour the scheduler fires at.
	RunHour int
	// MaxConcurrent bounds how many clients are processed at once.
	MaxConcurrent int
}

func (c *Config) location() *time.Location {
	if c.Location != nil {
		return c.Location
	}
	return time.UTC
}

// Runner executes one daily aftercare batch.
type Runner struct {
	clients    *store.ClientStore
	artists    *store.ArtistStore
	deliveries *store.DeliveryStore
	runs       *store.RunStore
	email      EmailSender
	pusher     PushSender
	cfg        Config
	logger     *slog.Logger
	now        func() time.Time
	onComplete func(model.Run)
	onDelivery func(clientID, channel string, day int)
}

// NewRunner creates a runner over the given stores and channels.
func NewRunner(clients *store.ClientStore, artists *store.ArtistStore, deliveries *store.DeliveryStore, runs *store.RunStore, email EmailSender, pusher PushSender, cfg Config, logger *slog.Logger) *Runner {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	return &Runner{
		clients:    clients,
		artists:    artists,
		deliveries: deliveries,
		runs:       runs,
		email:      email,
		pusher:     pusher,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// OnComplete registers a hook invoked with the summary after every run.
func (r *Runner) OnComplete(fn func(model.Run)) {
	r.onComplete = fn
}

// OnDelivery registers a hook invoked after every successful send. It may
// be called concurrently from the client workers.
func (r *Runner) OnDelivery(fn func(clientID, channel string, day int)) {
	r.onDelivery = fn
}

func (r *Runner) notifyDelivery(clientID, channel string, day int) {
	if r.onDelivery != nil {
		r.onDelivery(clientID, channel, day)
	}
}

// Run executes one batch over all eligible clients and returns the
// aggregate summary. Only a failure of the initial enumeration query is
// fatal; every per-client and per-channel failure is logged and isolated.
func (r *Runner) Run(ctx context.Context) (model.Run, error) {
	started := r.now()
	today := started.In(r.cfg.location())

	r.logger.Info("starting daily aftercare run", "date", today.Format(time.DateOnly))

	eligible, err := r.clients.ListEligible()
	if err != nil {
		run := model.Run{
			StartedAt: started,
			Success:   false,
			Error:     err.Error(),
		}
		r.record(&run)
		return run, fmt.Errorf("enumerate clients: %w", err)
	}

	// Counters live at run scope and accumulate across the whole client
	// loop, photo reminders included.
	var processed, emailsSent, pushesSent, photoReminders atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.MaxConcurrent)

	for _, client := range eligible {
		g.Go(func() error {
			res := r.processClient(gctx, client, today)
			if res.processed {
				processed.Add(1)
			}
			if res.emailSent {
				emailsSent.Add(1)
			}
			if res.pushSent {
				pushesSent.Add(1)
			}
			if res.photoReminderSent {
				photoReminders.Add(1)
			}
			return nil
		})
	}
	g.Wait()

	finished := r.now()
	run := model.Run{
		StartedAt:      started,
		FinishedAt:     &finished,
		Processed:      int(processed.Load()),
		EmailsSent:     int(emailsSent.Load()),
		PushesSent:     int(pushesSent.Load()),
		PhotoReminders: int(photoReminders.Load()),
		Success:        true,
	}
	r.record(&run)

	r.logger.Info("daily aftercare run complete",
		"processed", run.Processed,
		"emails", run.EmailsSent,
		"pushes", run.PushesSent,
		"photo_reminders", run.PhotoReminders,
	)
	return run, nil
}

func (r *Runner) record(run *model.Run) {
	if r.runs != nil {
		if recorded, err := r.runs.Record(*run); err != nil {
			r.logger.Error("record run summary", "error", err)
		} else {
			run.ID = recorded.ID
		}
	}
	if r.onComplete != nil {
		r.onComplete(*run)
	}
}

type clientResult struct {
	processed         bool
	emailSent         bool
	pushSent          bool
	photoReminderSent bool
}

func (r *Runner) processClient(ctx context.Context, client model.Client, today time.Time) clientResult {
	if client.TattooDate == nil {
		r.logger.Warn("client has no tattoo date", "client", client.ID, "email", client.Email)
		return clientResult{}
	}

	day := plan.DayOffset(*client.TattooDate, today)
	if !plan.InWindow(day) {
		// Day 0 is handled at registration; past day 30 healing is done.
		return clientResult{}
	}

	artist, err := r.artists.GetByID(client.ArtistID)
	if err != nil {
		r.logger.Error("resolve artist", "client", client.ID, "artist", client.ArtistID, "error", err)
		return clientResult{}
	}
	if artist == nil {
		r.logger.Error("artist not found for client", "client", client.ID, "artist", client.ArtistID)
		return clientResult{}
	}

	r.logger.Debug("processing client", "client", client.ID, "day", day)

	// The three channels are independent: one failing must not keep the
	// others from being attempted.
	res := clientResult{processed: true}
	res.emailSent = r.sendEmail(ctx, &client, artist, day)
	res.pushSent = r.sendPush(&client, day)
	res.photoReminderSent = r.sendPhotoReminder(&client, day)
	return res
}

// sendEmail dispatches the aftercare email due on the given day, if any.
// Returns true only when an email actually went out this invocation.
func (r *Runner) sendEmail(ctx context.Context, client *model.Client, artist *model.Artist, day int) bool {
	if !plan.EmailDue(day) {
		return false
	}

	alias, ok := r.cfg.EmailTemplates[day]
	if !ok || alias == "" {
		r.logger.Warn("no email template configured", "day", day)
		return false
	}

	sent, err := r.deliveries.WasSent(client.ID, model.ChannelEmail, day)
	if err != nil {
		r.logger.Error("check email marker", "client", client.ID, "day", day, "error", err)
		return false
	}
	if sent {
		r.logger.Debug("email already sent", "client", client.ID, "day", day)
		return false
	}

	params := map[string]any{
		"client_name": client.Name,
		"studio_name": artist.DisplayName(),
		"app_link":    r.cfg.DashboardURL,
	}
	if err := r.email.SendTemplate(ctx, client.Email, alias, params); err != nil {
		// No marker written: the next daily run retries.
		r.logger.Error("send aftercare email", "client", client.ID, "day", day, "error", err)
		return false
	}

	if err := r.deliveries.MarkSent(client.ID, model.ChannelEmail, day, r.now()); err != nil {
		r.logger.Error("mark email sent", "client", client.ID, "day", day, "error", err)
	}
	r.logger.Info("sent aftercare email", "client", client.ID, "day", day)
	r.notifyDelivery(client.ID, model.ChannelEmail, day)
	return true
}

// sendPush dispatches the scheduled push for the day, if the client has a
// subscription and content is configured.
func (r *Runner) sendPush(client *model.Client, day int) bool {
	msg, ok := plan.PushMessageFor(day)
	if !ok {
		return false
	}

	payload := push.Payload{
		Title: msg.Title,
		Body:  msg.Body,
		URL:   r.cfg.DashboardURL,
		Tag:   fmt.Sprintf("aftercare-day%d", day),
		Day:   day,
		Kind:  "aftercare",
	}
	return r.dispatchPush(client, model.ChannelPush, day, payload)
}

// sendPhotoReminder rides the push transport but is a distinct
// communication type with its own delivery marker and counter.
func (r *Runner) sendPhotoReminder(client *model.Client, day int) bool {
	msg, ok := plan.PhotoReminderFor(day)
	if !ok {
		return false
	}

	payload := push.Payload{
		Title: msg.Title,
		Body:  msg.Body,
		URL:   r.cfg.DashboardURL,
		Tag:   fmt.Sprintf("photo-day%d", day),
		Day:   day,
		Kind:  "photo_reminder",
	}
	return r.dispatchPush(client, model.ChannelPhotoReminder, day, payload)
}

func (r *Runner) dispatchPush(client *model.Client, channel string, day int, payload push.Payload) bool {
	if !client.HasPushSubscription() {
		return false
	}

	sent, err := r.deliveries.WasSent(client.ID, channel, day)
	if err != nil {
		r.logger.Error("check push marker", "client", client.ID, "channel", channel, "day", day, "error", err)
		return false
	}
	if sent {
		r.logger.Debug("push already sent", "client", client.ID, "channel", channel, "day", day)
		return false
	}

	sub := push.Subscription{
		Endpoint: client.PushEndpoint,
		P256dh:   client.PushP256dh,
		Auth:     client.PushAuth,
	}
	if err := r.pusher.Send(sub, payload); err != nil {
		if errors.Is(err, push.ErrExpired) {
			r.logger.Warn("clearing expired push subscription", "client", client.ID)
			if err := r.clients.ClearPushSubscription(client.ID); err != nil {
				r.logger.Error("clear push subscription", "client", client.ID, "error", err)
			}
			// Zero the in-memory copy so later channels in this run
			// stop attempting the dead subscription.
			client.PushEndpoint = ""
			client.PushP256dh = ""
			client.PushAuth = ""
		} else {
			r.logger.Error("send push", "client", client.ID, "channel", channel, "day", day, "error", err)
		}
		return false
	}

	if err := r.deliveries.MarkSent(client.ID, channel, day, r.now()); err != nil {
		r.logger.Error("mark push sent", "client", client.ID, "channel", channel, "day", day, "error", err)
	}
	r.logger.Info("sent push", "client", client.ID, "channel", channel, "day", day)
	r.notifyDelivery(client.ID, channel, day)
	return true
}
