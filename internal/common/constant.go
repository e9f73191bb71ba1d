package common

// APIKeyHeaderName is the HTTP header (and gRPC metadata key, lower-cased)
// carrying the client's API key.
const APIKeyHeaderName = "X-Api-Key"

// Legacy identity headers. Older gateways rewrote the resolved client into
// these; the API strips them from inbound requests and never trusts them.
const (
	LegacyClientIDHeaderName = "X-Api-Client-Id"
	LegacyClientHeaderName   = "X-Api-Client"
)
