// Package session tracks one user's upload, scope selection and rendered
// poster through a small state machine.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/verte-zerg/sportsposter/internal/loader"
	"github.com/verte-zerg/sportsposter/internal/model"
	"github.com/verte-zerg/sportsposter/internal/poster"
	"github.com/verte-zerg/sportsposter/internal/stats"
)

// State is a step of the session lifecycle.
type State int

const (
	Idle State = iota
	Uploaded
	Validated
	Scoped
	Rendered
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Uploaded:
		return "uploaded"
	case Validated:
		return "validated"
	case Scoped:
		return "scoped"
	case Rendered:
		return "rendered"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrInvalidTransition is returned when an operation is not allowed in the
// current state.
var ErrInvalidTransition = errors.New("invalid session transition")

// Parser turns uploaded bytes into a validated table.
type Parser interface {
	Parse(content []byte) (*loader.Table, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func([]byte) (*loader.Table, error)

// Parse calls f.
func (f ParserFunc) Parse(content []byte) (*loader.Table, error) { return f(content) }

// Session is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	state   State
	content []byte
	table   *loader.Table
	lastErr error

	scope  model.Scope
	month  stats.MonthReport
	year   stats.YearReport
	figure *poster.Figure
}

// New returns an idle session.
func New() *Session {
	return &Session{}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error that sent the session back to Idle, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Upload stores new content and discards everything derived from the
// previous upload. It is allowed from any state.
func (s *Session) Upload(content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Uploaded
	s.content = content
	s.table = nil
	s.lastErr = nil
	s.scope = model.Scope{}
	s.month = stats.MonthReport{}
	s.year = stats.YearReport{}
	s.figure = nil
}

// Validate parses the uploaded content. On failure the session returns to
// Idle and keeps the error.
func (s *Session) Validate(p Parser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Uploaded {
		return fmt.Errorf("validate from %s: %w", s.state, ErrInvalidTransition)
	}
	table, err := p.Parse(s.content)
	if err != nil {
		s.state = Idle
		s.content = nil
		s.lastErr = err
		return err
	}
	s.table = table
	s.state = Validated
	return nil
}

// SelectScope aggregates the table for the chosen poster.
func (s *Session) SelectScope(scope model.Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Validated, Scoped, Rendered:
	default:
		return fmt.Errorf("select scope from %s: %w", s.state, ErrInvalidTransition)
	}
	switch scope.Variant {
	case model.VariantMonth:
		s.month = stats.AggregateMonth(s.table.Records)
	case model.VariantYear:
		if scope.Unit == "" {
			scope.Unit = model.UnitNone
		}
		s.year = stats.AggregateYear(s.table.Records, scope.Year, scope.Unit)
	default:
		return fmt.Errorf("unknown poster variant %q", scope.Variant)
	}
	s.scope = scope
	s.figure = nil
	s.state = Scoped
	return nil
}

// Render composes the poster for the selected scope.
func (s *Session) Render(style poster.Style) (*poster.Figure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Scoped && s.state != Rendered {
		return nil, fmt.Errorf("render from %s: %w", s.state, ErrInvalidTransition)
	}
	if s.scope.Variant == model.VariantYear {
		s.figure = poster.ComposeYearly(s.year, style)
	} else {
		s.figure = poster.ComposeMonthly(s.month, style)
	}
	s.state = Rendered
	return s.figure, nil
}

// Table returns the validated table, or nil before validation.
func (s *Session) Table() *loader.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table
}

// Scope returns the selected scope.
func (s *Session) Scope() model.Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope
}

// Figure returns the last rendered figure, or nil.
func (s *Session) Figure() *poster.Figure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.figure
}

// Activities returns the number of activities in the selected scope.
func (s *Session) Activities() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scope.Variant == model.VariantYear {
		return len(s.year.Records)
	}
	return len(s.month.Records)
}

// Manager holds sessions by id and drops them after an idle TTL.
type Manager struct {
	sessions *expirable.LRU[string, *Session]
}

// NewManager keeps at most size sessions, each for ttl since last use.
func NewManager(size int, ttl time.Duration) *Manager {
	return &Manager{sessions: expirable.NewLRU[string, *Session](size, nil, ttl)}
}

// Create starts a new idle session.
func (m *Manager) Create() (string, *Session) {
	id := uuid.NewString()
	s := New()
	m.sessions.Add(id, s)
	return id, s
}

// Get returns the session for id and refreshes its TTL.
func (m *Manager) Get(id string) (*Session, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	s, ok := m.sessions.Get(id)
	if ok {
		m.sessions.Add(id, s)
	}
	return s, ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	return m.sessions.Len()
}
