package region

import (
	"fmt"
	"log"
	"sync"
)

// Store is the single source of truth for the rectangle the next capture
// will grab. Writes come from manual edits and completed selection sessions;
// the preview refresh and capture trigger only read it.
type Store struct {
	mu     sync.RWMutex
	rect   Rect
	bounds Rect
	subs   map[int]func(Rect)
	nextID int
}

// NewStore creates a store holding initial. bounds is the union of all known
// displays; an empty bounds disables clamping.
func NewStore(initial Rect, bounds Rect) *Store {
	return &Store{
		rect:   initial,
		bounds: bounds,
		subs:   make(map[int]func(Rect)),
	}
}

// Get returns the last committed rectangle.
func (s *Store) Get() Rect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rect
}

// Bounds returns the clamping bound.
func (s *Store) Bounds() Rect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bounds
}

// SetBounds replaces the clamping bound, e.g. after displays change. The
// stored rectangle is left as is until the next Set.
func (s *Store) SetBounds(b Rect) {
	s.mu.Lock()
	s.bounds = b
	s.mu.Unlock()
}

// Set commits r. Rectangles without area are rejected with ErrDegenerate and
// the prior value is kept. Every other field is clamped to the display union
// rather than rejected, so manual entry stays permissive. Subscribers are
// notified with the value actually stored.
func (s *Store) Set(r Rect) error {
	if r.Empty() {
		return fmt.Errorf("%w: %s", ErrDegenerate, r)
	}

	s.mu.Lock()
	clamped := Clamp(r, s.bounds)
	s.rect = clamped
	subs := make([]func(Rect), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if clamped != r {
		log.Printf("region: clamped %s to %s", r, clamped)
	}
	for _, fn := range subs {
		fn(clamped)
	}
	return nil
}

// Subscribe registers fn to be called after every successful Set. The
// returned func removes the subscription.
func (s *Store) Subscribe(fn func(Rect)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Clamp pins each field of r independently: the origin to a pixel inside
// bounds and the extent to [1, bounds extent]. An empty bounds leaves r
// untouched.
func Clamp(r, bounds Rect) Rect {
	if bounds.Empty() {
		return r
	}
	return Rect{
		X:      clamp(r.X, bounds.X, bounds.X+bounds.Width-1),
		Y:      clamp(r.Y, bounds.Y, bounds.Y+bounds.Height-1),
		Width:  clamp(r.Width, 1, bounds.Width),
		Height: clamp(r.Height, 1, bounds.Height),
	}
}
