package db

import "time"

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Role      string    `json:"role"` // admin, editor
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CachedTranscript is a transcript payload stored as JSON under its video id.
type CachedTranscript struct {
	VideoID   string    `json:"video_id"`
	Language  string    `json:"language"`
	Payload   []byte    `json:"-"`
	FetchedAt time.Time `json:"fetched_at"`
}
