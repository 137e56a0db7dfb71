package domain

import (
	"strings"
	"time"
)

// WidgetConfig holds the contact-widget settings for one shop.
type WidgetConfig struct {
	Shop           string    `json:"shop" bson:"shop"`
	PhoneNumber    string    `json:"phone_number" bson:"phone_number"`
	InitialMessage string    `json:"initial_message" bson:"initial_message"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

// Validate checks the required fields. Phone numbers may contain digits and
// the separators "+", "-" and spaces, nothing else.
func (c *WidgetConfig) Validate() error {
	if c.PhoneNumber == "" || c.InitialMessage == "" {
		return ErrInvalidConfig
	}
	stripped := strings.NewReplacer("+", "", "-", "", " ", "").Replace(c.PhoneNumber)
	if stripped == "" {
		return ErrInvalidConfig
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return ErrInvalidConfig
		}
	}
	return nil
}

// DialNumber returns the phone number with separators removed, the form
// expected by the wa.me deep link.
func (c *WidgetConfig) DialNumber() string {
	return strings.NewReplacer("+", "", "-", "", " ", "").Replace(c.PhoneNumber)
}
