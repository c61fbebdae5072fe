package service

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thamerkt/contract-service/config"
	"github.com/thamerkt/contract-service/model"
)

// ContractStore is an in-memory store for contracts
// In production, this should be replaced with a database
type ContractStore struct {
	contracts    map[string]*model.Contract
	mu           sync.RWMutex
	maxContracts int // Maximum contracts to keep, 0 = unlimited
}

// NewContractStore creates a contract store with the given configuration
func NewContractStore(cfg *config.StoreConfig) *ContractStore {
	maxContracts := cfg.MaxContracts
	if maxContracts < 0 {
		maxContracts = 0
	}
	return &ContractStore{
		contracts:    make(map[string]*model.Contract),
		maxContracts: maxContracts,
	}
}

// CreateDraft persists a new contract in draft status, assigning its id.
func (s *ContractStore) CreateDraft(contract *model.Contract) *model.Contract {
	s.mu.Lock()
	defer s.mu.Unlock()

	contract.ID = uuid.New().String()
	contract.Status = model.StatusDraft
	contract.CreatedAt = time.Now()
	contract.UpdatedAt = contract.CreatedAt
	s.contracts[contract.ID] = contract

	// Cleanup if exceeds max
	s.cleanupIfNeeded()

	return clone(contract)
}

// Get returns the contract with the given id, or nil.
func (s *ContractStore) Get(id string) *model.Contract {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.contracts[id])
}

// FindByParties returns the single contract between a named owner and
// client. ErrNotFound when none exists; ErrAmbiguous when more than one
// does (party pairs are not unique, see FindByParties callers).
func (s *ContractStore) FindByParties(ownerName, clientName string) (*model.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *model.Contract
	for _, c := range s.contracts {
		if c.OwnerName != ownerName || c.ClientName != clientName {
			continue
		}
		if found != nil {
			return nil, ErrAmbiguous
		}
		found = c
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return clone(found), nil
}

// FindByEventID returns the contract drafted for the given event id, or
// nil. Used to make redelivered queue events idempotent.
func (s *ContractStore) FindByEventID(eventID string) *model.Contract {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.contracts {
		if c.EventID == eventID {
			return clone(c)
		}
	}
	return nil
}

// MarkSigned transitions a draft contract to signed, setting the signature
// document reference, the signer public key, and the signed date in one
// step. The status must still be draft at the time of the write; a contract
// that is already signed fails with ErrAlreadySigned.
func (s *ContractStore) MarkSigned(id, documentRef, publicKeyPEM string, signedDate time.Time) (*model.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contracts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if c.Status != model.StatusDraft {
		return nil, ErrAlreadySigned
	}

	c.Status = model.StatusSigned
	c.Document = documentRef
	c.PublicKey = publicKeyPEM
	c.SignedDate = &signedDate
	c.UpdatedAt = time.Now()

	return clone(c), nil
}

// List returns contracts, optionally filtered by owner and/or client name,
// newest first.
func (s *ContractStore) List(ownerName, clientName string) []*model.Contract {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.Contract
	for _, c := range s.contracts {
		if ownerName != "" && c.OwnerName != ownerName {
			continue
		}
		if clientName != "" && c.ClientName != clientName {
			continue
		}
		result = append(result, clone(c))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// cleanupIfNeeded removes oldest contracts if store exceeds maxContracts
// Must be called with lock held
func (s *ContractStore) cleanupIfNeeded() {
	if s.maxContracts <= 0 {
		return // Unlimited
	}

	if len(s.contracts) <= s.maxContracts {
		return
	}

	// Sort contracts by creation time
	contracts := make([]*model.Contract, 0, len(s.contracts))
	for _, c := range s.contracts {
		contracts = append(contracts, c)
	}
	sort.Slice(contracts, func(i, j int) bool {
		return contracts[i].CreatedAt.Before(contracts[j].CreatedAt)
	})

	// Remove oldest contracts
	removeCount := len(contracts) - s.maxContracts
	for i := 0; i < removeCount; i++ {
		slog.Info("auto-cleaning old contract",
			"contract_id", contracts[i].ID,
			"created_at", contracts[i].CreatedAt,
		)
		delete(s.contracts, contracts[i].ID)
	}
}

// Count returns the number of contracts in the store
func (s *ContractStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contracts)
}

// clone copies a contract so callers never observe writes made under the
// store lock.
func clone(c *model.Contract) *model.Contract {
	if c == nil {
		return nil
	}
	copied := *c
	if c.SignedDate != nil {
		d := *c.SignedDate
		copied.SignedDate = &d
	}
	copied.Equipment.IDs = append([]string(nil), c.Equipment.IDs...)
	return &copied
}
