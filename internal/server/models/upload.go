package models

import (
	"time"

	"github.com/dmitrijs2005/equipview/internal/equipment"
)

// UploadMeta is the listing view of a stored upload.
type UploadMeta struct {
	ID         string
	AccountID  string
	Filename   string
	UploadedAt time.Time
	StorageKey string
}

// Upload is one history entry: metadata, the summary computed at upload time
// and every classified row.
type Upload struct {
	UploadMeta
	Summary equipment.Summary
	Rows    []equipment.Row
}
