package store

import (
	"encoding/json"
	"os"
	"sort"
	"sync"

	"github.com/cofleet/exchange/internal/domain"
)

// Directory is the in-memory implementation of the participant
// directory the engine consumes. Production deployments would back
// this with the identity system; here it is seeded from a JSON file.
type Directory struct {
	mu           sync.RWMutex
	participants map[string]*domain.Participant
}

// NewDirectory creates an empty Directory.
func NewDirectory() *Directory {
	return &Directory{
		participants: make(map[string]*domain.Participant),
	}
}

// Upsert inserts or replaces a participant record.
func (d *Directory) Upsert(p *domain.Participant) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.participants[p.ID] = p
}

// Resolve returns the participant for an identity. It returns
// domain.ErrParticipantNotFound for an unknown id.
func (d *Directory) Resolve(id string) (*domain.Participant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.participants[id]
	if !ok {
		return nil, domain.ErrParticipantNotFound
	}
	cp := *p
	return &cp, nil
}

// SetPhone records a participant's contact phone. Called from the RFQ
// accept path after the order transition has committed.
func (d *Directory) SetPhone(id, phone string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.participants[id]
	if !ok {
		return domain.ErrParticipantNotFound
	}
	p.Phone = phone
	return nil
}

// DeskContacts returns the trader contacts for a settlement desk that
// have a usable email address, ordered by id for determinism.
func (d *Directory) DeskContacts(desk string) []*domain.Participant {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var result []*domain.Participant
	for _, p := range d.participants {
		if p.Desk != desk || p.Role != domain.RoleTrader || p.Email == "" {
			continue
		}
		cp := *p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// LoadFile seeds the directory from a JSON array of participants.
// A missing file is not an error; the directory just stays empty.
func (d *Directory) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var participants []*domain.Participant
	if err := json.Unmarshal(raw, &participants); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range participants {
		d.participants[p.ID] = p
	}
	return nil
}
