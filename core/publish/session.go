package publish

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medicamentos-etl/core/logger"
)

// State is the progress of one publish session.
type State string

const (
	StateCreated State = "created"
	StateLoaded  State = "data_loaded"
	StateSwapped State = "swapped"
	StateRetired State = "retired"
	StateAborted State = "aborted"
)

// Session tracks the staging artifact of one publish attempt against one target.
// It is owned by a single goroutine until it is recorded in a SessionLog.
type Session struct {
	ID         string    `json:"id"`
	Target     string    `json:"target"`
	Dataset    string    `json:"dataset"`
	Production string    `json:"production"`
	Staging    string    `json:"staging,omitempty"`
	Retired    []string  `json:"retired,omitempty"`
	State      State     `json:"state"`
	Rows       int       `json:"rows"`
	Warnings   []string  `json:"warnings,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`

	log *zap.Logger
}

// NewSession starts a session for a target.
func NewSession(log *zap.Logger, target, dataset, production string, rows int) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Session{
		ID:         uuid.NewString(),
		Target:     target,
		Dataset:    dataset,
		Production: production,
		State:      StateCreated,
		Rows:       rows,
		StartedAt:  time.Now(),
	}
	s.log = logger.WithSession(log, s.ID, target).With(zap.String("production", production))
	return s
}

// Logger returns the session-scoped logger.
func (s *Session) Logger() *zap.Logger {
	return s.log
}

// SetStaging records the staging artifact name.
func (s *Session) SetStaging(name string) {
	s.Staging = name
	s.log = s.log.With(zap.String("staging", name))
}

// Advance moves the session to a new state.
func (s *Session) Advance(state State) {
	s.State = state
	s.log.Debug("Publish session advanced", zap.String("state", string(state)))
}

// Warn records a non-fatal problem.
func (s *Session) Warn(err error) {
	s.Warnings = append(s.Warnings, err.Error())
	s.log.Warn("Publish session warning", zap.Error(err))
}

func (s *Session) finish(err error) {
	s.FinishedAt = time.Now()
	if err != nil {
		s.Error = err.Error()
		if s.State != StateSwapped && s.State != StateRetired {
			s.State = StateAborted
		}
	}
}

func (s *Session) snapshot() Session {
	c := *s
	c.Retired = append([]string(nil), s.Retired...)
	c.Warnings = append([]string(nil), s.Warnings...)
	c.log = nil
	return c
}

// SessionLog keeps the most recent sessions in memory. Nothing is persisted.
type SessionLog struct {
	mu      sync.RWMutex
	size    int
	entries []Session
}

// NewSessionLog creates a log holding at most size sessions.
func NewSessionLog(size int) *SessionLog {
	if size <= 0 {
		size = 50
	}
	return &SessionLog{size: size}
}

// Add records a finished session.
func (l *SessionLog) Add(s Session) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, s)
	if len(l.entries) > l.size {
		l.entries = append([]Session(nil), l.entries[len(l.entries)-l.size:]...)
	}
}

// Recent returns the recorded sessions, newest first.
func (l *SessionLog) Recent() []Session {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Session, 0, len(l.entries))
	for i := len(l.entries) - 1; i >= 0; i-- {
		out = append(out, l.entries[i])
	}
	return out
}
