// Package hub implements the connection orchestrator: the state machine that
// takes a user from "connect" through the external OAuth redirect and back,
// relays the authorization code to the webhook, and reconciles the catalog.
//
// Phases:
//
//	Idle ──connect, no identity──▶ AwaitingIdentity ──identity──▶ Redirecting
//	Idle ──connect, identity known──────────────────────────────▶ Redirecting
//	any ──load with ?code──▶ Connecting ──delivered──▶ Succeeded
//	                                   └──failed─────▶ Failed(reason)
//	Succeeded | Failed ──dismiss──▶ Idle
//
// All transitions are serialized by one mutex. The webhook call runs outside
// the lock; while it is outstanding the phase is Connecting and any second
// attempt is rejected with ErrConnectionInProgress.
package hub
