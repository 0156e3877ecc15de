package clientRepo

import (
	"sync"

	"serenity/models"
)

// MemoryClientRepo is a map-backed ClientRepository for tests and local
// demos.
type MemoryClientRepo struct {
	mu      sync.RWMutex
	clients map[string]models.Client
}

// NewMemoryClientRepo creates an empty in-memory client repository.
func NewMemoryClientRepo() *MemoryClientRepo {
	return &MemoryClientRepo{clients: make(map[string]models.Client)}
}

func (r *MemoryClientRepo) GetByPhone(phone string) (*models.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[models.NormalizePhone(phone)]
	if !ok {
		return nil, nil
	}
	copied := c
	return &copied, nil
}

func (r *MemoryClientRepo) Put(client *models.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client.PhoneNumber] = *client
	return nil
}
