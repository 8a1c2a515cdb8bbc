package client

import (
	"time"

	"github.com/dmitrijs2005/equipview/internal/equipment"
)

type UploadMeta struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type UploadResult struct {
	Message    string                 `json:"message"`
	UploadID   string                 `json:"upload_id"`
	Filename   string                 `json:"filename"`
	UploadedAt time.Time              `json:"uploaded_at"`
	Summary    equipment.Summary      `json:"summary"`
	Warnings   []equipment.RowWarning `json:"warnings"`
}

type UploadData struct {
	Upload  UploadMeta        `json:"upload"`
	Summary equipment.Summary `json:"summary"`
	Rows    []equipment.Row   `json:"data"`
}

type Profile struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	DateJoined time.Time `json:"date_joined"`
}

// ProfileUpdate leaves nil fields unchanged on the server.
type ProfileUpdate struct {
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// Download is a file fetched from the server.
type Download struct {
	Filename string
	Body     []byte
}
