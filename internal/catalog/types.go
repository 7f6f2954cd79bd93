package catalog

// Status is the connection status of an integration.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusPending      Status = "pending"
	StatusActive       Status = "active"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusDisconnected, StatusPending, StatusActive:
		return true
	}
	return false
}

// Provider identifies the OAuth provider backing an integration.
type Provider string

const (
	// ProviderNone marks an integration without an OAuth connect path.
	ProviderNone   Provider = ""
	ProviderGitHub Provider = "github"
)

// SupportsOAuth reports whether the provider has an OAuth connect path.
func (p Provider) SupportsOAuth() bool {
	return p != ProviderNone
}

// String returns the provider name, "none" for ProviderNone.
func (p Provider) String() string {
	if p == ProviderNone {
		return "none"
	}
	return string(p)
}

// Integration is a single catalog entry.
type Integration struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Provider    Provider `json:"provider,omitempty"`
	Status      Status   `json:"status"`
	Connected   bool     `json:"connected"`
}

// SupportsOAuth reports whether the integration can be connected via OAuth.
func (i Integration) SupportsOAuth() bool {
	return i.Provider.SupportsOAuth()
}

// DefaultIntegrations returns the seed catalog shipped with the hub.
func DefaultIntegrations() []Integration {
	return []Integration{
		{
			ID:          "github-1",
			Name:        "GitHub",
			Description: "Sync repositories, issues, and pull requests directly with your workflow.",
			Icon:        "github",
			Provider:    ProviderGitHub,
			Status:      StatusDisconnected,
		},
		{
			ID:          "discord-1",
			Name:        "Discord",
			Description: "Send automated alerts and notifications to your team channels.",
			Icon:        "discord",
			Status:      StatusDisconnected,
		},
		{
			ID:          "slack-1",
			Name:        "Slack",
			Description: "Post messages to your workspace when specific triggers are met.",
			Icon:        "slack",
			Status:      StatusDisconnected,
		},
	}
}
