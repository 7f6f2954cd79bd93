// Package gateway builds the outbound OAuth authorization URL and reads the
// provider's redirect back to the application.
//
// The authorization URL is a pure function of configuration. Callback
// parsing never mutates its input; removing the consumed code from the
// visible URL is a separate, explicit step (StripCallback).
package gateway
