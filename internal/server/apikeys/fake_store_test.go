package apikeys

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/userdirectory/internal/common"
	"github.com/dmitrijs2005/userdirectory/internal/server/models"
	"github.com/google/uuid"
)

const (
	seedAPIKey = "1AbecedA2Razreda3Klopi4Dni5Sinov6Kolov?"
	seedName   = "Test Client"
)

var seedClientID = uuid.MustParse("617867E5-1B5F-45F4-8BDC-96A9109C3A27")

// fakeStore is an in-memory CredentialStore that counts lookups.
// hook, when set, runs before each lookup with the 1-based call number.
type fakeStore struct {
	mu      sync.Mutex
	clients map[string]*models.Client
	err     error
	calls   atomic.Int32
	hook    func(ctx context.Context, call int32) error
}

func newFakeStore(clients ...*models.Client) *fakeStore {
	s := &fakeStore{clients: map[string]*models.Client{}}
	for _, c := range clients {
		s.put(c)
	}
	return s
}

func seedClient() *models.Client {
	return &models.Client{ID: seedClientID, APIKey: seedAPIKey, Name: seedName}
}

func (s *fakeStore) put(c *models.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.APIKey] = c
}

func (s *fakeStore) FindByAPIKey(ctx context.Context, apiKey string) (*models.Client, error) {
	n := s.calls.Add(1)
	if s.hook != nil {
		if err := s.hook(ctx, n); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	c, ok := s.clients[apiKey]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *c
	return &cp, nil
}
