package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"photodeck/internal/model"
)

func writeEnvelope(w http.ResponseWriter, code int, status string, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	raw, _ := json.Marshal(data)
	json.NewEncoder(w).Encode(Envelope{Status: status, Data: raw, Message: message})
}

func newTestClient(serverURL, token string) *Client {
	return New(serverURL, func() string { return token }, zap.NewNop())
}

func TestLogin(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			var creds map[string]string
			json.NewDecoder(r.Body).Decode(&creds)
			if creds["username"] != "alice" || creds["password"] != "secret" {
				t.Errorf("unexpected credentials %v", creds)
			}
			writeEnvelope(w, http.StatusOK, "success", map[string]interface{}{
				"access_token":  "tok-1",
				"refresh_token": "ref-1",
				"user":          model.User{ID: 7, Username: "alice", Email: "alice@example.com"},
			}, "Login successful")
		}))
		defer server.Close()

		res, err := newTestClient(server.URL, "").Login(context.Background(), "alice", "secret")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.AccessToken != "tok-1" || res.RefreshToken != "ref-1" {
			t.Errorf("unexpected tokens: %+v", res)
		}
		if res.User.Username != "alice" || res.User.ID != 7 {
			t.Errorf("unexpected user: %+v", res.User)
		}
	})

	t.Run("Invalid Credentials", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusUnauthorized, "error", nil, "Invalid credentials")
		}))
		defer server.Close()

		_, err := newTestClient(server.URL, "").Login(context.Background(), "alice", "wrong")
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("Backend Unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		_, err := newTestClient(server.URL, "").Login(context.Background(), "alice", "secret")
		if !errors.Is(err, ErrBackendUnavailable) {
			t.Fatalf("expected ErrBackendUnavailable, got %v", err)
		}
	})
}

func TestEnvelopeFailureOnHTTPSuccess(t *testing.T) {
	// A non-success envelope status is an application failure even with an
	// HTTP 200.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, "error", nil, "Username already exists")
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, "").Register(context.Background(), "alice", "a@b.c", "pw")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Message != "Username already exists" {
		t.Errorf("expected server message, got %q", apiErr.Message)
	}
}

func TestListPhotos(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("expected bearer token header, got %q", got)
		}
		writeEnvelope(w, http.StatusOK, "success", []model.Photo{
			{ID: 1, Filename: "a.jpg", UploadDate: "2026-08-01"},
			{ID: 2, Filename: "b.png", UploadDate: "2026-08-02"},
		}, "")
	}))
	defer server.Close()

	photos, err := newTestClient(server.URL, "tok-1").ListPhotos(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(photos) != 2 || photos[0].Filename != "a.jpg" || photos[1].ID != 2 {
		t.Errorf("unexpected photos: %+v", photos)
	}
}

func TestUploadPhoto(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/photos/upload" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("failed to parse multipart form: %v", err)
		}
		file, header, err := r.FormFile("photo")
		if err != nil {
			t.Fatalf("missing photo field: %v", err)
		}
		defer file.Close()
		if header.Filename != "cat.jpg" {
			t.Errorf("expected filename cat.jpg, got %q", header.Filename)
		}
		writeEnvelope(w, http.StatusCreated, "success",
			model.Photo{ID: 3, Filename: "user_7_cat.jpg"}, "Photo uploaded and registered successfully")
	}))
	defer server.Close()

	photo, err := newTestClient(server.URL, "tok-1").
		UploadPhoto(context.Background(), "cat.jpg", bytes.NewReader([]byte("jpegdata")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if photo.ID != 3 {
		t.Errorf("unexpected photo: %+v", photo)
	}
}

func TestChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Message  string     `json:"message"`
			History  []ChatTurn `json:"history"`
			Provider string     `json:"provider"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Message != "how many photos?" {
			t.Errorf("unexpected message %q", req.Message)
		}
		if len(req.History) != 2 || req.History[0].Role != "user" {
			t.Errorf("unexpected history %+v", req.History)
		}
		writeEnvelope(w, http.StatusOK, "success",
			ChatReply{Answer: "You have 12 photos.", Provider: "groq"}, "")
	}))
	defer server.Close()

	history := []ChatTurn{
		{Role: "user", Content: "hi"},
		{Role: "bot", Content: "hello"},
	}
	reply, err := newTestClient(server.URL, "tok-1").
		Chat(context.Background(), "how many photos?", history, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Answer != "You have 12 photos." {
		t.Errorf("unexpected reply: %+v", reply)
	}
}

func TestMedia(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/dashboard/media/a.jpg" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte("jpegdata"))
		}))
		defer server.Close()

		data, contentType, err := newTestClient(server.URL, "tok-1").Media(context.Background(), "a.jpg")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "jpegdata" || contentType != "image/jpeg" {
			t.Errorf("unexpected media: %q %q", data, contentType)
		}
	})

	t.Run("Unauthorized", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		_, _, err := newTestClient(server.URL, "stale").Media(context.Background(), "a.jpg")
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/dashboard/stats" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeEnvelope(w, http.StatusOK, "success",
			model.Stats{PhotoCount: 12, PersonCount: 3, HistoryCount: 5}, "")
	}))
	defer server.Close()

	stats, err := newTestClient(server.URL, "tok-1").Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.PhotoCount != 12 || stats.PersonCount != 3 || stats.HistoryCount != 5 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestHealth(t *testing.T) {
	// The health endpoint does not use the envelope.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(HealthStatus{Status: "healthy", App: "photodeck"})
	}))
	defer server.Close()

	hs, err := newTestClient(server.URL, "").Health(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hs.Status != "healthy" {
		t.Errorf("unexpected health status: %+v", hs)
	}
}
