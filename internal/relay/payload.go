package relay

import "time"

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Payload is the JSON body posted to the webhook.
type Payload struct {
	Code         string `json:"code"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret,omitempty"`
	Email        string `json:"email"`
	Timestamp    string `json:"timestamp"`
}

// NewPayload builds a payload stamped with now (converted to UTC).
// The secret is included only when forwardSecret is set.
func NewPayload(code, email string, cfg Config, now time.Time) Payload {
	p := Payload{
		Code:      code,
		ClientID:  cfg.ClientID,
		Email:     email,
		Timestamp: now.UTC().Format(TimestampLayout),
	}
	if cfg.ForwardClientSecret {
		p.ClientSecret = cfg.ClientSecret
	}
	return p
}
