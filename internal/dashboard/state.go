// ABOUTME: Per-session dashboard state: tabs, active section, rows, modal, pending delete.
// ABOUTME: StateStore keeps one State per admin session and drops it on logout.

package dashboard

import (
	"sync"

	"github.com/2389/shopdesk/internal/resource"
)

// FlashKind is the tone of a flash message.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

// Flash is a message shown once, on the response to the command that set it.
type Flash struct {
	Kind    FlashKind
	Message string
}

// Modal is an open update form. At most one exists per State.
type Modal struct {
	Kind   resource.Kind
	ID     string
	Title  string
	Fields []resource.Field
	// Preview is the rendered markdown of an FAQ answer.
	Preview string
}

// PendingDelete is a delete waiting for the operator's confirmation.
type PendingDelete struct {
	Kind resource.Kind
	ID   string
	Name string
}

// State is what one admin sees. Handlers only change it through Dispatch.
type State struct {
	mu sync.Mutex

	initialized bool
	Tabs        []resource.Kind
	Active      resource.Kind
	Rows        []resource.Record
	Modal       *Modal
	Delete      *PendingDelete
	Flash       *Flash
	// CreateValues holds a rejected create form so it can be redisplayed.
	CreateValues map[string]string
}

// View is a copy of a State taken for rendering.
type View struct {
	Tabs         []resource.Kind
	Active       resource.Kind
	Rows         []resource.Record
	Modal        *Modal
	Delete       *PendingDelete
	Flash        *Flash
	CreateValues map[string]string
}

func (s *State) view() View {
	v := View{
		Tabs:   append([]resource.Kind(nil), s.Tabs...),
		Active: s.Active,
		Rows:   append([]resource.Record(nil), s.Rows...),
		Flash:  s.Flash,
		Delete: s.Delete,
	}
	if s.Modal != nil {
		m := *s.Modal
		m.Fields = append([]resource.Field(nil), s.Modal.Fields...)
		v.Modal = &m
	}
	if s.CreateValues != nil {
		v.CreateValues = make(map[string]string, len(s.CreateValues))
		for k, val := range s.CreateValues {
			v.CreateValues[k] = val
		}
	}
	return v
}

// reset returns the state to what a fresh login sees.
func (s *State) reset() {
	s.initialized = false
	s.Tabs = nil
	s.Active = nil
	s.Rows = nil
	s.Modal = nil
	s.Delete = nil
	s.Flash = nil
	s.CreateValues = nil
}

// StateStore holds dashboard states keyed by session id.
type StateStore struct {
	mu     sync.Mutex
	states map[string]*State
}

// NewStateStore creates an empty StateStore.
func NewStateStore() *StateStore {
	return &StateStore{states: make(map[string]*State)}
}

// Get returns the state of a session, creating it on first use.
func (s *StateStore) Get(sessionID string) *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[sessionID]
	if !ok {
		st = &State{}
		s.states[sessionID] = st
	}
	return st
}

// Delete drops a session's state.
func (s *StateStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, sessionID)
}

// Len is the number of held states.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}
