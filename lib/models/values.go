package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

const (
	// Routing policies, one per Source.
	RoutingMembership = "membership"
	RoutingKeyword    = "keyword"

	// Delivery platforms, one per Recipient.
	PlatformExpo  = "expo"
	PlatformEmail = "email"

	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

func ValidRouting(routing string) bool {
	return routing == RoutingMembership || routing == RoutingKeyword
}

func ValidPlatform(platform string) bool {
	return platform == PlatformExpo || platform == PlatformEmail
}

// StringList is stored as a JSON array in a text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *StringList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		return json.Unmarshal([]byte(v), l)
	case []byte:
		return json.Unmarshal(v, l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
}
