package stamper

import "time"

// ExpirationInfo describe la vida útil de la clave activa.
type ExpirationInfo struct {
	Initialized     bool          `json:"initialized"`
	ExpiresAt       time.Time     `json:"expiresAt,omitempty"`
	TimeUntilExpiry time.Duration `json:"timeUntilExpiry"`
	// ShouldRenew es true dentro de la ventana de renovación y antes de expirar.
	ShouldRenew bool `json:"shouldRenew"`
	Expired     bool `json:"expired"`
}

// ExpirationInfo calcula el estado de expiración de la clave activa.
// La clave sigue firmando después de expirar; rotar es decisión del caller.
func (m *Manager) ExpirationInfo() ExpirationInfo {
	m.mu.RLock()
	a := m.active
	m.mu.RUnlock()
	if a == nil {
		return ExpirationInfo{}
	}

	expiresAt := a.rec.Info.ExpiresAt
	if expiresAt.IsZero() {
		// registros anteriores a expiresAt
		expiresAt = a.rec.Info.CreatedAt.Add(m.opts.KeyTTL)
	}
	left := expiresAt.Sub(m.opts.Now())
	return ExpirationInfo{
		Initialized:     true,
		ExpiresAt:       expiresAt,
		TimeUntilExpiry: left,
		ShouldRenew:     left > 0 && left <= m.opts.RenewalWindow,
		Expired:         left <= 0,
	}
}
