package domain

import "sync"

// Instrument describes a tradeable symbol: which settlement desk
// handles it and whether its liquidity is negotiated (two-phase
// handshake) rather than continuously matched.
type Instrument struct {
	Symbol     string `json:"symbol"`
	Desk       string `json:"desk"`
	Negotiated bool   `json:"negotiated"`
}

// InstrumentRegistry tracks known instruments in a thread-safe manner.
// Symbols seen in order submissions that were never registered are
// assigned to the default desk.
type InstrumentRegistry struct {
	mu          sync.RWMutex
	instruments map[string]Instrument
	defaultDesk string
}

// NewInstrumentRegistry creates a registry whose unknown symbols fall
// back to defaultDesk.
func NewInstrumentRegistry(defaultDesk string) *InstrumentRegistry {
	return &InstrumentRegistry{
		instruments: make(map[string]Instrument),
		defaultDesk: defaultDesk,
	}
}

// Register adds or replaces an instrument definition.
func (r *InstrumentRegistry) Register(inst Instrument) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instruments[inst.Symbol] = inst
}

// Ensure returns the instrument for symbol, registering a default-desk
// continuous instrument if the symbol is new.
func (r *InstrumentRegistry) Ensure(symbol string) Instrument {
	r.mu.RLock()
	inst, ok := r.instruments[symbol]
	r.mu.RUnlock()
	if ok {
		return inst
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if inst, ok = r.instruments[symbol]; ok {
		return inst
	}
	inst = Instrument{Symbol: symbol, Desk: r.defaultDesk}
	r.instruments[symbol] = inst
	return inst
}

// Get returns the instrument for symbol if registered.
func (r *InstrumentRegistry) Get(symbol string) (Instrument, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instruments[symbol]
	return inst, ok
}
