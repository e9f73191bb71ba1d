package models

import "github.com/google/uuid"

// Client is a tenant registered through the provisioning process.
// The user directory only reads clients; it never creates or edits them.
type Client struct {
	ID     uuid.UUID `db:"id"`
	APIKey string    `db:"api_key"`
	Name   string    `db:"client_name"`
}
