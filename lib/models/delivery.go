package models

import "time"

// Delivery is the dispatch-outcome ledger: one row per submitted batch.
// Batches belonging to the same notice share a JobID.
type Delivery struct {
	ID        uint   `gorm:"primarykey"`
	JobID     string `gorm:"index"`
	SourceID  string
	NoticeID  string
	Platform  string
	Addresses int
	Status    string
	Error     string
	SentAt    time.Time
}

type Deliveries []Delivery
