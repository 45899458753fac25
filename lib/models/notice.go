package models

import "time"

// Notice is one archived bulletin item. The composite unique index on
// (source_id, notice_id) is the dedup ledger: a second insert for the same
// pair fails, so an item can be archived at most once.
type Notice struct {
	ID          uint   `gorm:"primarykey"`
	SourceID    string `gorm:"index:idx_source_notice,unique"`
	NoticeID    string `gorm:"index:idx_source_notice,unique"`
	Subject     string
	ContentHTML string
	ImageURLs   StringList
	Summary     string
	Metadata    string
	PublishedAt time.Time
	IngestedAt  time.Time
}

type Notices []Notice
