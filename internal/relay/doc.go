// Package relay delivers an OAuth authorization code and the user's email to
// a remote automation webhook that performs the token exchange.
//
// Each Deliver call issues exactly one POST with a freshly built JSON payload.
// There is no retry, queueing or deduplication; a failed delivery is reported
// to the caller and retrying is an explicit, user-driven action.
package relay
