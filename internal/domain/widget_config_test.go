package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWidgetConfig_Validate(t *testing.T) {
	valid := []string{"+15551234567", "555-123-4567", "+1 555 123 4567"}
	for _, phone := range valid {
		cfg := &WidgetConfig{Shop: "s.example", PhoneNumber: phone, InitialMessage: "Hi"}
		assert.NoError(t, cfg.Validate(), "phone %q", phone)
	}

	invalid := []string{"", "+", "- -", "555x123", "(555) 123-4567", "+1;rm -rf"}
	for _, phone := range invalid {
		cfg := &WidgetConfig{Shop: "s.example", PhoneNumber: phone, InitialMessage: "Hi"}
		assert.Error(t, cfg.Validate(), "phone %q", phone)
	}

	cfg := &WidgetConfig{Shop: "s.example", PhoneNumber: "+15551234567"}
	assert.Error(t, cfg.Validate(), "empty message")
}

func TestWidgetConfig_DialNumber(t *testing.T) {
	cfg := &WidgetConfig{PhoneNumber: "+1 555-123-4567"}
	assert.Equal(t, "15551234567", cfg.DialNumber())
}
