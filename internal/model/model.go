// Package model defines the data types shared across the client.
package model

import "time"

// User is the account identity returned by the backend on login.
// Opaque to this layer beyond display.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Photo is one entry of the user's photo collection.
type Photo struct {
	ID         int64  `json:"id"`
	Filename   string `json:"filename"`
	UploadDate string `json:"upload_date"`
	Size       int64  `json:"size,omitempty"`
	MimeType   string `json:"mime_type,omitempty"`
}

// Stats is the dashboard aggregate snapshot. It is derived server-side and
// only eventually consistent with the photo collection.
type Stats struct {
	PhotoCount   int `json:"photo_count"`
	PersonCount  int `json:"person_count"`
	HistoryCount int `json:"history_count"`
}

// HistoryItem is one activity record from the history endpoint.
type HistoryItem struct {
	ID        int64  `json:"id"`
	Action    string `json:"action,omitempty"`
	Status    string `json:"status,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Role identifies the author of a chat transcript entry.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// DeliveryStatus tracks reconciliation of an optimistically appended entry.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)

// ChatMessage is one transcript entry. ID and Status are local metadata and
// never leave the client; only Role and Content go over the wire.
type ChatMessage struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Status    DeliveryStatus `json:"status,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
