// Package api provides the HTTP ingest API: one endpoint that accepts a user
// message, drives the conversation graph, and returns the bot's reply.
package api

import "time"

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// ConversationTTL is how long a suspended conversation stays resumable.
	ConversationTTL time.Duration
}
