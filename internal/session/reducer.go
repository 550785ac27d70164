package session

import (
	"github.com/campushire/campushire/internal/identity"
)

// action is a state transition. The set is closed: only the types below
// implement it.
type action interface {
	isAction()
}

type (
	bootstrapSkipped struct{}
	restoreStarted   struct{ token string }
	restoreSucceeded struct{ user *identity.User }
	restoreFailed    struct{}
	authStarted      struct{}
	authSucceeded    struct {
		token string
		user  *identity.User
	}
	authFailed   struct{ message string }
	authSettled  struct{}
	loggedOut    struct{}
	errorCleared struct{}
)

func (bootstrapSkipped) isAction() {}
func (restoreStarted) isAction()   {}
func (restoreSucceeded) isAction() {}
func (restoreFailed) isAction()    {}
func (authStarted) isAction()      {}
func (authSucceeded) isAction()    {}
func (authFailed) isAction()       {}
func (authSettled) isAction()      {}
func (loggedOut) isAction()        {}
func (errorCleared) isAction()     {}

// reduce returns the state that follows s after a. It never has side effects.
// Credential and identity are always set or cleared together, except during
// Restoring where the identity is still being fetched.
func reduce(s State, a action) State {
	switch a := a.(type) {
	case bootstrapSkipped:
		if s.Status == StatusIdle {
			return State{Status: StatusReady}
		}
	case restoreStarted:
		if s.Status == StatusIdle && a.token != "" {
			return State{Status: StatusRestoring, Credential: a.token}
		}
	case restoreSucceeded:
		if s.Status != StatusRestoring || a.user == nil {
			return s
		}
		s.Identity = a.user
		s.Status = StatusReady
	case restoreFailed, loggedOut:
		return State{Status: StatusReady}
	case authStarted:
		if s.Status == StatusRestoring {
			// A login during restore abandons the restored credential
			return State{Status: StatusAuthenticating}
		}
		s.Status = StatusAuthenticating
		s.LastError = ""
	case authSucceeded:
		if a.token == "" || a.user == nil {
			return s
		}
		return State{Status: StatusReady, Credential: a.token, Identity: a.user}
	case authFailed:
		if s.Status != StatusAuthenticating {
			return s
		}
		s.Status = StatusFailed
		s.LastError = a.message
	case authSettled:
		if s.Status == StatusAuthenticating || s.Status == StatusFailed {
			s.Status = StatusReady
		}
	case errorCleared:
		s.LastError = ""
	}
	return s
}
