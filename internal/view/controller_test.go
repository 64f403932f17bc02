package view

import (
	"testing"

	"go.uber.org/zap"

	"photodeck/internal/api"
	"photodeck/internal/model"
	"photodeck/internal/session"
)

func newControllerFixture(t *testing.T) (*Controller, *session.Store, *session.Flow) {
	t.Helper()
	store := session.NewStore(session.NewMemoryTokenStore(), zap.NewNop())
	client := api.New("http://localhost:5000/api", store.Token, zap.NewNop())
	flow := session.NewFlow(client, store, zap.NewNop())
	controller := NewController(store, flow, zap.NewNop())
	return controller, store, flow
}

func TestStartState(t *testing.T) {
	t.Run("Restored Session", func(t *testing.T) {
		controller, _, _ := newControllerFixture(t)
		controller.Start(true)
		if controller.State() != StateDashboard {
			t.Errorf("expected dashboard, got %s", controller.State())
		}
	})

	t.Run("No Session", func(t *testing.T) {
		controller, _, _ := newControllerFixture(t)
		controller.Start(false)
		if controller.State() != StateLanding {
			t.Errorf("expected landing, got %s", controller.State())
		}
	})
}

func TestTransitions(t *testing.T) {
	controller, store, _ := newControllerFixture(t)
	controller.Start(false)

	controller.EnterAuth()
	if controller.State() != StateAuth {
		t.Fatalf("expected auth, got %s", controller.State())
	}

	// Login success moves to the dashboard via the session event.
	store.Login("tok-1", "ref-1", model.User{Username: "alice"})
	if controller.State() != StateDashboard {
		t.Fatalf("expected dashboard after login, got %s", controller.State())
	}

	// Logout returns to landing.
	store.Logout()
	if controller.State() != StateLanding {
		t.Fatalf("expected landing after logout, got %s", controller.State())
	}
}

func TestEnterAuthResetsSubMode(t *testing.T) {
	controller, _, flow := newControllerFixture(t)
	controller.Start(false)

	flow.SetMode(session.ModeSignup)
	controller.EnterAuth()

	if flow.Mode() != session.ModeLogin {
		t.Errorf("entering auth must reset the sub-mode to login, got %s", flow.Mode())
	}
	if flow.Err() != "" {
		t.Error("entering auth must clear the previous error")
	}
}

func TestChatOverlay(t *testing.T) {
	controller, store, _ := newControllerFixture(t)
	controller.Start(false)

	// The overlay is only meaningful on the dashboard.
	if controller.ToggleChat() {
		t.Error("chat must not open outside the dashboard")
	}

	store.Login("tok-1", "ref-1", model.User{Username: "alice"})
	if !controller.ToggleChat() {
		t.Error("expected chat to open on the dashboard")
	}
	if controller.ToggleChat() {
		t.Error("expected the second toggle to close chat")
	}

	// Leaving the dashboard closes the overlay.
	controller.ToggleChat()
	store.Logout()
	if controller.ChatOpen() {
		t.Error("logout must close the chat overlay")
	}
}
