package domain

// WebhookEvent is a verified webhook delivery handed to topic handlers.
// Payload holds the raw bytes exactly as received; handlers parse what
// they need from it.
type WebhookEvent struct {
	Topic   string
	Shop    string
	Payload []byte
}
