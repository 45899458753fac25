package models

import "gorm.io/gorm"

// Recipient is a registered user of the client app. Written through the
// client API, read-only inside the pipeline. Address may be empty until the
// client registers a device token or email.
type Recipient struct {
	gorm.Model
	Platform   string
	Address    string `gorm:"index"`
	Department string `gorm:"index"`
	Keywords   StringList
}

type Recipients []Recipient
