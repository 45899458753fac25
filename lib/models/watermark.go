package models

import "time"

// Watermark records, per source, the publication timestamp of the newest
// item ingested so far. LastPublished never regresses.
type Watermark struct {
	SourceID      string `gorm:"primarykey"`
	LastPublished time.Time
	UpdatedAt     time.Time
}
