package models

import "time"

// Source is one external bulletin feed. Rows are owned by the admin API;
// the pipeline only reads them.
type Source struct {
	ID        string `gorm:"primarykey"`
	Name      string
	Endpoint  string
	Routing   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Sources []Source
