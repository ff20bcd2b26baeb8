// Package filter holds the user's selected spot filters.
package filter

import (
	"errors"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/jengzang/spots-backend-go/internal/models"
)

// ErrInvalidRadius is returned for negative or non-finite radii.
var ErrInvalidRadius = errors.New("radius must be a finite non-negative number of kilometers")

// Change describes one committed mutation.
type Change struct {
	Criteria models.FilterCriteria
	Version  uint64
	// ServerFilterChanged is set when techniques or species changed, which
	// requires a new catalog fetch.
	ServerFilterChanged bool
}

// Store is the filter state of one map session. Every mutation is atomic:
// readers never observe a partially applied change.
type Store struct {
	mu         sync.Mutex
	techniques map[string]struct{}
	species    map[string]struct{}
	radiusKm   *float64
	searchTerm string
	version    uint64

	seedParam string
	seeded    bool

	listeners map[int]func(Change)
	nextID    int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		techniques: make(map[string]struct{}),
		species:    make(map[string]struct{}),
		listeners:  make(map[int]func(Change)),
	}
}

// ToggleTechnique adds the technique when absent and removes it when present.
func (s *Store) ToggleTechnique(name string) models.FilterCriteria {
	return s.mutate(true, func() bool { return toggle(s.techniques, name) })
}

// ToggleSpecies adds the species when absent and removes it when present.
func (s *Store) ToggleSpecies(name string) models.FilterCriteria {
	return s.mutate(true, func() bool { return toggle(s.species, name) })
}

// SetRadius sets the radius filter; nil disables it.
func (s *Store) SetRadius(km *float64) (models.FilterCriteria, error) {
	if km != nil && (math.IsNaN(*km) || math.IsInf(*km, 0) || *km < 0) {
		return s.Criteria(), ErrInvalidRadius
	}
	return s.mutate(false, func() bool {
		if equalRadius(s.radiusKm, km) {
			return false
		}
		if km == nil {
			s.radiusKm = nil
		} else {
			v := *km
			s.radiusKm = &v
		}
		return true
	}), nil
}

// SetSearchTerm sets the free text search term.
func (s *Store) SetSearchTerm(term string) models.FilterCriteria {
	term = strings.TrimSpace(term)
	return s.mutate(false, func() bool {
		if s.searchTerm == term {
			return false
		}
		s.searchTerm = term
		return true
	})
}

// ClearAll resets every field in one step.
func (s *Store) ClearAll() models.FilterCriteria {
	s.mu.Lock()
	if len(s.techniques) == 0 && len(s.species) == 0 && s.radiusKm == nil && s.searchTerm == "" {
		c := s.snapshotLocked()
		s.mu.Unlock()
		return c
	}
	server := len(s.techniques) > 0 || len(s.species) > 0
	s.techniques = make(map[string]struct{})
	s.species = make(map[string]struct{})
	s.radiusKm = nil
	s.searchTerm = ""
	change := s.commitLocked(server)
	listeners := s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, change)
	return change.Criteria
}

// SeedSpecies selects the species named by an external parameter such as a
// deep link. It applies at most once per distinct parameter value and
// reports whether it changed anything.
func (s *Store) SeedSpecies(param string) bool {
	param = strings.TrimSpace(param)

	s.mu.Lock()
	if s.seeded && s.seedParam == param {
		s.mu.Unlock()
		return false
	}
	s.seeded = true
	s.seedParam = param
	if param == "" {
		s.mu.Unlock()
		return false
	}
	if _, ok := s.species[param]; ok && len(s.species) == 1 {
		s.mu.Unlock()
		return false
	}
	s.species = map[string]struct{}{param: {}}
	change := s.commitLocked(true)
	listeners := s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, change)
	return true
}

// Criteria returns a snapshot of the current criteria.
func (s *Store) Criteria() models.FilterCriteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Snapshot returns the current criteria together with the version they
// were committed at.
func (s *Store) Snapshot() (models.FilterCriteria, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), s.version
}

// Version increases on every committed change.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Subscribe registers fn to run after every committed change.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) mutate(server bool, fn func() bool) models.FilterCriteria {
	s.mu.Lock()
	if !fn() {
		c := s.snapshotLocked()
		s.mu.Unlock()
		return c
	}
	change := s.commitLocked(server)
	listeners := s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, change)
	return change.Criteria
}

func (s *Store) commitLocked(server bool) Change {
	s.version++
	return Change{Criteria: s.snapshotLocked(), Version: s.version, ServerFilterChanged: server}
}

func (s *Store) listenersLocked() []func(Change) {
	out := make([]func(Change), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func (s *Store) snapshotLocked() models.FilterCriteria {
	c := models.FilterCriteria{
		Techniques: sortedKeys(s.techniques),
		Species:    sortedKeys(s.species),
		SearchTerm: s.searchTerm,
	}
	if s.radiusKm != nil {
		v := *s.radiusKm
		c.RadiusKm = &v
	}
	return c
}

func notify(listeners []func(Change), change Change) {
	for _, fn := range listeners {
		fn(change)
	}
}

func toggle(set map[string]struct{}, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	if _, ok := set[name]; ok {
		delete(set, name)
	} else {
		set[name] = struct{}{}
	}
	return true
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func equalRadius(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
