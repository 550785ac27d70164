package session

import (
	"github.com/campushire/campushire/internal/identity"
)

// Status is the lifecycle phase of the session.
type Status int

const (
	StatusIdle Status = iota
	StatusRestoring
	StatusAuthenticating
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRestoring:
		return "restoring"
	case StatusAuthenticating:
		return "authenticating"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is a snapshot of the session. An empty Credential means none is held.
type State struct {
	Credential string
	Identity   *identity.User
	Status     Status
	LastError  string
}

// Authenticated reports whether an identity is loaded.
func (s State) Authenticated() bool {
	return s.Identity != nil
}

// clone copies the identity so callers cannot mutate manager state.
func (s State) clone() State {
	if s.Identity != nil {
		u := *s.Identity
		s.Identity = &u
	}
	return s
}
