// Package ledger tracks the lifecycle of every order the keeper has observed.
//
// Orders move through a one-way state machine:
//
//	OPENED -> FILLED -> SETTLED
//	OPENED -> REFUNDED
//
// SETTLED and REFUNDED are terminal. The ledger key is the pair
// (sourceChainID, orderID): order IDs are only unique per origin chain.
package ledger

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// Status is an order lifecycle state.
type Status string

const (
	StatusOpened   Status = "OPENED"
	StatusFilled   Status = "FILLED"
	StatusSettled  Status = "SETTLED"
	StatusRefunded Status = "REFUNDED"
)

// CanTransitionTo reports whether next is a legal successor of s.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusOpened:
		return next == StatusFilled || next == StatusRefunded
	case StatusFilled:
		return next == StatusSettled
	default:
		return false
	}
}

var (
	// ErrNotFound is returned when no order exists under the requested key.
	ErrNotFound = errors.New("order not found")
	// ErrBadTransition is returned for a status update the state machine
	// does not allow, including repeating a transition already made.
	ErrBadTransition = errors.New("illegal status transition")
)

// Order is one ledger record. Everything except Status and the transition
// timestamps is frozen at insert time.
type Order struct {
	OrderID       string   // decimal uint256, as emitted on the origin chain
	SourceChainID uint64   // origin chain the order was opened on
	Sender        string   // origin-side account that opened the order
	TokenIn       string   // origin-side deposit token address
	AmountIn      *big.Int // deposit amount, origin decimals
	TokenOut      string   // origin-side address naming the payout asset; zero address = native
	AmountOut     *big.Int // payout amount, origin decimals
	Recipient     string   // destination-side payout target
	FillDeadline  int64    // unix seconds; fills at exactly the deadline are valid
	Status        Status

	CreatedAt time.Time
	FilledAt  time.Time
	SettledAt time.Time
}

func orderKey(sourceChainID uint64, orderID string) string {
	return fmt.Sprintf("%d:%s", sourceChainID, orderID)
}

// Store is the keeper's view of the ledger. Implementations must be safe for
// concurrent use: listeners for several chains write into one store.
type Store interface {
	// Insert records a newly opened order. Re-inserting an existing key is a
	// no-op that reports false; the stored record is never overwritten.
	Insert(o Order) (bool, error)

	// Get returns the order under (sourceChainID, orderID).
	Get(sourceChainID uint64, orderID string) (Order, error)

	// FindByOrderID looks an order up by ID alone, scanning all origin
	// chains. Destination fill events do not carry the source chain, so this
	// is the lookup path for them. The oldest match wins.
	FindByOrderID(orderID string) (Order, error)

	// SetStatus advances the order's state machine. Illegal transitions,
	// including repeats, fail with ErrBadTransition and leave the record
	// untouched.
	SetStatus(sourceChainID uint64, orderID string, next Status) error

	// All returns every record in insertion order.
	All() ([]Order, error)

	Close() error
}

// MemoryStore is the default Store: a mutex-guarded map, good for one keeper
// process with no restart durability.
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]*Order
	keys   []string // insertion order, for stable dumps
	now    func() time.Time
}

// NewMemoryStore creates an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[string]*Order),
		now:    time.Now,
	}
}

func (s *MemoryStore) Insert(o Order) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := orderKey(o.SourceChainID, o.OrderID)
	if _, exists := s.orders[key]; exists {
		return false, nil
	}

	o.Status = StatusOpened
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now()
	}
	stored := o
	if o.AmountIn != nil {
		stored.AmountIn = new(big.Int).Set(o.AmountIn)
	}
	if o.AmountOut != nil {
		stored.AmountOut = new(big.Int).Set(o.AmountOut)
	}
	s.orders[key] = &stored
	s.keys = append(s.keys, key)
	return true, nil
}

func (s *MemoryStore) Get(sourceChainID uint64, orderID string) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, exists := s.orders[orderKey(sourceChainID, orderID)]
	if !exists {
		return Order{}, ErrNotFound
	}
	return *o, nil
}

func (s *MemoryStore) FindByOrderID(orderID string) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, key := range s.keys {
		if o := s.orders[key]; o.OrderID == orderID {
			return *o, nil
		}
	}
	return Order{}, ErrNotFound
}

func (s *MemoryStore) SetStatus(sourceChainID uint64, orderID string, next Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, exists := s.orders[orderKey(sourceChainID, orderID)]
	if !exists {
		return ErrNotFound
	}
	if !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: order %s on chain %d is %s, cannot become %s",
			ErrBadTransition, orderID, sourceChainID, o.Status, next)
	}

	o.Status = next
	switch next {
	case StatusFilled:
		o.FilledAt = s.now()
	case StatusSettled:
		o.SettledAt = s.now()
	}
	return nil
}

func (s *MemoryStore) All() ([]Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Order, 0, len(s.keys))
	for _, key := range s.keys {
		out = append(out, *s.orders[key])
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
