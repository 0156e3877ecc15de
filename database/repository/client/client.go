package clientRepo

import "serenity/models"

// ClientRepository persists client records keyed by normalized phone number.
type ClientRepository interface {
	// GetByPhone returns the client for the contact key, or nil when unseen.
	GetByPhone(phone string) (*models.Client, error)
	// Put inserts or replaces the client record.
	Put(client *models.Client) error
}
