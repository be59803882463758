package auth

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"chatdock/internal/config"
	"chatdock/internal/directory"
	"chatdock/internal/events"
	"chatdock/internal/logging"
	"chatdock/internal/models"
	"chatdock/internal/prefs"
	"chatdock/internal/presence"
	"chatdock/internal/session"
)

// Controller runs the login and logout sequences.
type Controller struct {
	bus     *events.Bus
	auth    Authenticator
	users   *directory.Users
	store   *directory.Store
	friends *presence.Friends
	online  *presence.Online
	manager *session.Manager
	prefs   *prefs.Store
	cfg     config.WidgetConfig
	log     zerolog.Logger
}

// NewController wires the login orchestration.
func NewController(
	bus *events.Bus,
	auth Authenticator,
	users *directory.Users,
	store *directory.Store,
	friends *presence.Friends,
	online *presence.Online,
	manager *session.Manager,
	prefStore *prefs.Store,
	cfg config.WidgetConfig,
) *Controller {
	return &Controller{
		bus:     bus,
		auth:    auth,
		users:   users,
		store:   store,
		friends: friends,
		online:  online,
		manager: manager,
		prefs:   prefStore,
		cfg:     cfg,
		log:     logging.Component("auth"),
	}
}

// Login authenticates and, on success, records the current user, seeds the
// configured friends roster, stamps the visit time, and publishes
// login.complete. The returned error's user-facing text comes from
// UserMessage.
func (c *Controller) Login(ctx context.Context, cred Credentials) error {
	id, name, err := c.auth.Login(ctx, cred)
	if err != nil {
		// Provider error payloads can echo credentials; redact before the
		// sink sees them.
		c.log.Error().
			Str("message", UserMessage(err)).
			Str("error", logging.Redact(err.Error())).
			Msg("login failed")
		return err
	}

	user := &models.User{ID: id, Name: name, Online: true}
	if err := c.users.Add(user); err != nil {
		return err
	}
	c.users.SetCurrentUser(user)
	c.friends.AddFromConfig(c.cfg.Friends)
	c.RecordVisit(time.Now())

	c.log.Info().Str("user_id", id).Msg("login complete")
	c.bus.Publish(events.Event{Type: events.EventLoginComplete, UserID: id})
	return nil
}

// Logout tears the session down: the provider session is invalidated, all
// in-memory chat state is dropped, and logout is published so every list
// controller empties itself. A provider failure is logged but does not keep
// the local state alive.
func (c *Controller) Logout(ctx context.Context) {
	if err := c.auth.Logout(ctx); err != nil {
		c.log.Warn().Err(err).Msg("provider logout failed; clearing local state anyway")
	}

	c.manager.Logout()
	c.store.Clear()
	c.users.Clear()
	c.friends.Clear()
	c.online.Clear()

	c.bus.Publish(events.Event{Type: events.EventLogout})
}

// RecordVisit stamps the last-visited time used by the click-to-chat check.
func (c *Controller) RecordVisit(at time.Time) {
	if c.prefs != nil {
		c.prefs.SetTime(prefs.KeyLastVisited, at)
	}
}

// ShowClickToChat reports whether the click-to-chat box should be shown
// instead of opening the widget directly: true when the user has been away
// longer than the configured timeout, or has never visited. A zero timeout
// disables the box.
func (c *Controller) ShowClickToChat(now time.Time) bool {
	if c.cfg.ClickToChatTimeout <= 0 {
		return false
	}
	if c.prefs == nil {
		return true
	}
	last, ok := c.prefs.GetTime(prefs.KeyLastVisited)
	if !ok {
		return true
	}
	return now.Sub(last) > c.cfg.ClickToChatTimeout
}
