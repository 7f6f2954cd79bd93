package hub

import (
	"fmt"

	"github.com/clientworkaccess-cmd/integration--hub/internal/catalog"
)

// Phase is the connection lifecycle phase.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseAwaitingIdentity Phase = "awaiting_identity"
	PhaseRedirecting      Phase = "redirecting"
	PhaseConnecting       Phase = "connecting"
	PhaseSucceeded        Phase = "succeeded"
	PhaseFailed           Phase = "failed"
)

// User-facing messages.
const (
	ReasonIdentityMissing    = "Email missing. Please try connecting again."
	ReasonIdentityUnreadable = "Could not read the stored email. Please try again."
	webhookFailurePrefix     = "Failed to notify webhook: "
	deniedPrefix             = "Authorization was denied: "
)

// SuccessMessage is the notice shown after a successful delivery.
func SuccessMessage(providerName string) string {
	return fmt.Sprintf("%s integration has been authorized and synchronized.", providerName)
}

// UnsupportedMessage is the notice shown for integrations without OAuth.
func UnsupportedMessage(name string) string {
	return fmt.Sprintf("%s integration is coming soon!", name)
}

// state is the single source of truth for the lifecycle. reason is only
// meaningful in PhaseFailed, notice only in PhaseSucceeded.
type state struct {
	phase         Phase
	reason        string
	notice        string
	integrationID string
}

// Snapshot is the observable view of the orchestrator. The boolean flags
// are derived from Phase, so at most one of IsConnecting, Error and Success
// is ever set.
type Snapshot struct {
	Phase         Phase                 `json:"phase"`
	IsConnecting  bool                  `json:"isConnecting"`
	Error         string                `json:"error,omitempty"`
	Success       bool                  `json:"success"`
	Notice        string                `json:"notice,omitempty"`
	Email         string                `json:"email"`
	IntegrationID string                `json:"integrationId,omitempty"`
	Integrations  []catalog.Integration `json:"integrations"`
	Version       uint64                `json:"version"`
}

func (s state) snapshot(email string, integrations []catalog.Integration, version uint64) Snapshot {
	snap := Snapshot{
		Phase:         s.phase,
		Email:         email,
		IntegrationID: s.integrationID,
		Integrations:  integrations,
		Version:       version,
	}
	switch s.phase {
	case PhaseConnecting:
		snap.IsConnecting = true
	case PhaseFailed:
		snap.Error = s.reason
	case PhaseSucceeded:
		snap.Success = true
		snap.Notice = s.notice
	}
	return snap
}

// ConnectOutcome describes what the caller must do after RequestConnect.
type ConnectOutcome int

const (
	// ConnectRedirect means the caller should navigate to RedirectURL.
	ConnectRedirect ConnectOutcome = iota + 1
	// ConnectIdentityRequired means an email must be collected and passed
	// to SubmitIdentity first.
	ConnectIdentityRequired
)

func (o ConnectOutcome) String() string {
	switch o {
	case ConnectRedirect:
		return "redirect"
	case ConnectIdentityRequired:
		return "identity_required"
	}
	return "unknown"
}

// ConnectResult is returned by RequestConnect.
type ConnectResult struct {
	Outcome     ConnectOutcome
	RedirectURL string
	Integration catalog.Integration
	// Prompted is true when this call started a new identity prompt.
	Prompted bool
}

// LoadOutcome describes the result of HandleLoad.
type LoadOutcome int

const (
	// LoadNoCallback means the URL carried no callback parameters.
	LoadNoCallback LoadOutcome = iota + 1
	LoadSucceeded
	LoadFailed
)

func (o LoadOutcome) String() string {
	switch o {
	case LoadNoCallback:
		return "no_callback"
	case LoadSucceeded:
		return "succeeded"
	case LoadFailed:
		return "failed"
	}
	return "unknown"
}
