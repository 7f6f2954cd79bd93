// Package catalog holds the fixed registry of integrations the hub offers and
// their connection status.
//
// The catalog is seeded once at process start and never grows or shrinks.
// Only Status and Connected change, and only through UpdateStatus, which keeps
// Connected == (Status == StatusActive) for every entry.
//
// Entries are matched for updates by an explicit Provider identifier attached
// at construction rather than by display name, so renaming or localizing an
// integration does not break the OAuth flow.
package catalog
