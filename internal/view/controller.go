// Package view implements the top-level screen selector.
package view

import (
	"sync"

	"go.uber.org/zap"

	"photodeck/internal/session"
)

// State is the visible top-level screen. The chat window is an overlay, not
// a State; it toggles independently while the dashboard is active.
type State string

const (
	StateLanding   State = "landing"
	StateAuth      State = "auth"
	StateDashboard State = "dashboard"
)

// Controller is the view state machine, driven by session events and
// explicit navigation.
type Controller struct {
	flow   *session.Flow
	logger *zap.Logger

	mu       sync.Mutex
	state    State
	chatOpen bool
}

// NewController creates a Controller in the landing state and subscribes it
// to session events: login moves to the dashboard, logout back to landing.
func NewController(auth *session.Store, flow *session.Flow, logger *zap.Logger) *Controller {
	c := &Controller{flow: flow, logger: logger, state: StateLanding}
	auth.Subscribe(func(ev session.Event) {
		switch ev {
		case session.EventAuthenticated:
			c.setState(StateDashboard)
		case session.EventDeauthenticated:
			c.setState(StateLanding)
		}
	})
	return c
}

// Start picks the initial screen: dashboard when a restored token exists,
// landing otherwise.
func (c *Controller) Start(restored bool) {
	if restored {
		c.setState(StateDashboard)
		return
	}
	c.setState(StateLanding)
}

// EnterAuth navigates from landing to the auth screen. Each entry resets the
// auth sub-mode to login with any previous error cleared.
func (c *Controller) EnterAuth() {
	c.flow.Reset()
	c.setState(StateAuth)
}

// State returns the current screen.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ToggleChat flips the chat overlay. Only meaningful on the dashboard;
// elsewhere the overlay stays closed. Returns the new visibility.
func (c *Controller) ToggleChat() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateDashboard {
		c.chatOpen = false
		return false
	}
	c.chatOpen = !c.chatOpen
	return c.chatOpen
}

// ChatOpen reports whether the chat overlay is visible.
func (c *Controller) ChatOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chatOpen
}

func (c *Controller) setState(next State) {
	c.mu.Lock()
	prev := c.state
	c.state = next
	if next != StateDashboard {
		c.chatOpen = false
	}
	c.mu.Unlock()

	if prev != next {
		c.logger.Debug("View transition",
			zap.String("from", string(prev)),
			zap.String("to", string(next)))
	}
}
