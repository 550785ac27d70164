package session

import (
	"slices"

	"github.com/campushire/campushire/internal/identity"
)

// HasRole reports whether the logged-in user has role.
func (m *Manager) HasRole(role identity.Role) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Identity != nil && m.state.Identity.Role == role
}

// HasAnyRole reports whether the logged-in user has one of roles.
func (m *Manager) HasAnyRole(roles ...identity.Role) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Identity != nil && slices.Contains(roles, m.state.Identity.Role)
}

// IsVerified is false when nobody is logged in.
func (m *Manager) IsVerified() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Identity != nil && m.state.Identity.IsVerified
}

// IsBlocked is false when nobody is logged in.
func (m *Manager) IsBlocked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Identity != nil && m.state.Identity.IsBlocked
}
