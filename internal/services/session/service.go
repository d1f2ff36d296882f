// Package session owns the registry of active scan sessions. Operator
// controls (restart, stop, torch, camera facing) mutate session state
// here; the capture itself happens on the client.
package session

import (
	"sync"
	"time"

	domainErrors "scanpay/internal/errors"
	"scanpay/internal/models"
	"scanpay/internal/services/monitor"

	"github.com/google/uuid"
)

// FacingMode selects the camera on multi-camera devices.
type FacingMode string

const (
	FacingUser        FacingMode = "user"
	FacingEnvironment FacingMode = "environment"
)

// ScanSession is the server-side state of one capture session.
type ScanSession struct {
	ID           string                     `json:"id"`
	Capabilities models.BrowserCapabilities `json:"capabilities"`
	Config       models.ScannerConfig       `json:"config"`
	Running      bool                       `json:"running"`
	TorchOn      bool                       `json:"torch_on"`
	Facing       FacingMode                 `json:"facing"`
	Restarts     int                        `json:"restarts"`
	StartedAt    time.Time                  `json:"started_at"`
	LastActivity time.Time                  `json:"last_activity"`
}

// Service manages scan sessions.
type Service interface {
	Start(caps models.BrowserCapabilities, cfg models.ScannerConfig) *ScanSession
	Get(id string) (*ScanSession, error)
	Restart(id string) (*ScanSession, error)
	Stop(id string) (*ScanSession, error)
	SetTorch(id string, on bool) (*ScanSession, error)
	SwitchFacing(id string, mode FacingMode) (*ScanSession, error)
	UpdateConfig(id string, cfg models.ScannerConfig) (*ScanSession, error)
	PruneIdle() int
}

type service struct {
	mu       sync.Mutex
	sessions map[string]*ScanSession
	clock    monitor.Clock
	idleTTL  time.Duration
}

// NewService creates a session registry. Sessions idle longer than
// idleTTL are dropped by PruneIdle.
func NewService(clock monitor.Clock, idleTTL time.Duration) Service {
	if clock == nil {
		panic("clock is required")
	}
	if idleTTL <= 0 {
		idleTTL = 15 * time.Minute
	}
	return &service{
		sessions: make(map[string]*ScanSession),
		clock:    clock,
		idleTTL:  idleTTL,
	}
}

func (s *service) Start(caps models.BrowserCapabilities, cfg models.ScannerConfig) *ScanSession {
	now := s.clock.Now()
	sess := &ScanSession{
		ID:           uuid.NewString(),
		Capabilities: caps,
		Config:       cfg,
		Running:      true,
		Facing:       initialFacing(caps),
		StartedAt:    now,
		LastActivity: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return snapshot(sess)
}

func (s *service) Get(id string) (*ScanSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domainErrors.ErrSessionNotFound
	}
	return snapshot(sess), nil
}

func (s *service) Restart(id string) (*ScanSession, error) {
	return s.mutate(id, func(sess *ScanSession) error {
		sess.Running = true
		sess.TorchOn = false
		sess.Restarts++
		return nil
	})
}

func (s *service) Stop(id string) (*ScanSession, error) {
	return s.mutate(id, func(sess *ScanSession) error {
		sess.Running = false
		sess.TorchOn = false
		return nil
	})
}

func (s *service) SetTorch(id string, on bool) (*ScanSession, error) {
	return s.mutate(id, func(sess *ScanSession) error {
		if !sess.Running {
			return domainErrors.ErrSessionStopped
		}
		if on && !sess.Capabilities.SupportsTorch {
			return domainErrors.ErrTorchUnsupported
		}
		sess.TorchOn = on
		return nil
	})
}

func (s *service) SwitchFacing(id string, mode FacingMode) (*ScanSession, error) {
	if mode != FacingUser && mode != FacingEnvironment {
		return nil, domainErrors.ErrInvalidFacingMode
	}
	return s.mutate(id, func(sess *ScanSession) error {
		if !sess.Running {
			return domainErrors.ErrSessionStopped
		}
		// Switching cameras drops the torch; not every camera has one.
		if sess.Facing != mode {
			sess.TorchOn = false
		}
		sess.Facing = mode
		return nil
	})
}

func (s *service) UpdateConfig(id string, cfg models.ScannerConfig) (*ScanSession, error) {
	return s.mutate(id, func(sess *ScanSession) error {
		sess.Config = cfg
		return nil
	})
}

func (s *service) PruneIdle() int {
	cutoff := s.clock.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	pruned := 0
	for id, sess := range s.sessions {
		if sess.LastActivity.Before(cutoff) {
			delete(s.sessions, id)
			pruned++
		}
	}
	return pruned
}

func (s *service) mutate(id string, fn func(*ScanSession) error) (*ScanSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, domainErrors.ErrSessionNotFound
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	sess.LastActivity = s.clock.Now()
	return snapshot(sess), nil
}

func initialFacing(caps models.BrowserCapabilities) FacingMode {
	if caps.IsMobile || caps.IsTablet {
		return FacingEnvironment
	}
	return FacingUser
}

func snapshot(sess *ScanSession) *ScanSession {
	copied := *sess
	return &copied
}
