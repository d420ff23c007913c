// Package assistant – access.go implements role-based permissions.
//
// Three ways to hold assistant access:
//   - admin:  holds the configured admin platform role
//   - buyer:  holds the configured buyer platform role
//   - grant:  identity was added to the Buyers set by an admin
//
// Admin implies buyer. Everything here is a pure predicate over the current
// state document plus the role membership delivered with the message; the
// platform is never called back.
package assistant

import (
	"log/slog"
)

// AccessPolicy decides who may use the assistant and carries the
// admin-gated buyer mutations.
type AccessPolicy struct {
	cfg    AccessConfig
	store  *Store
	logger *slog.Logger
}

// NewAccessPolicy creates an access policy bound to the state store.
func NewAccessPolicy(cfg AccessConfig, store *Store, logger *slog.Logger) *AccessPolicy {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccessPolicy{
		cfg:    cfg,
		store:  store,
		logger: logger.With("component", "access"),
	}
}

// IsAdmin reports whether the identity holds the configured admin role.
func (p *AccessPolicy) IsAdmin(id string, roles []string) bool {
	if p.cfg.AdminRoleID == "" {
		return false
	}
	return hasRole(roles, p.cfg.AdminRoleID)
}

// IsBuyer reports whether the identity may use the assistant: admin role,
// buyer role, or an admin-issued grant in the Buyers set.
func (p *AccessPolicy) IsBuyer(id string, roles []string) bool {
	if p.IsAdmin(id, roles) {
		return true
	}
	if p.cfg.BuyerRoleID != "" && hasRole(roles, p.cfg.BuyerRoleID) {
		return true
	}

	var granted bool
	p.store.View(func(doc *StateDocument) {
		granted = doc.HasBuyer(id)
	})
	return granted
}

// GrantBuyer adds the identity to the Buyers set. Idempotent; persists only
// when membership actually changes.
func (p *AccessPolicy) GrantBuyer(id string) {
	p.store.Update(func(doc *StateDocument) bool {
		if doc.HasBuyer(id) {
			return false
		}
		doc.Buyers = append(doc.Buyers, id)
		return true
	})
	p.logger.Info("buyer granted", "user", id)
}

// RevokeBuyer removes the identity from the Buyers set and from Unlocked —
// revocation clears both standing access and permanent-quota status.
func (p *AccessPolicy) RevokeBuyer(id string) {
	p.store.Update(func(doc *StateDocument) bool {
		changed := false
		if filtered := removeString(doc.Buyers, id); len(filtered) != len(doc.Buyers) {
			doc.Buyers = filtered
			changed = true
		}
		if filtered := removeString(doc.Unlocked, id); len(filtered) != len(doc.Unlocked) {
			doc.Unlocked = filtered
			changed = true
		}
		return changed
	})
	p.logger.Info("buyer revoked", "user", id)
}

// ListBuyers returns copies of the Buyers and Unlocked sets.
func (p *AccessPolicy) ListBuyers() (buyers, unlocked []string) {
	p.store.View(func(doc *StateDocument) {
		buyers = append([]string(nil), doc.Buyers...)
		unlocked = append([]string(nil), doc.Unlocked...)
	})
	return buyers, unlocked
}

// ---------- Helpers ----------

func hasRole(roles []string, roleID string) bool {
	for _, r := range roles {
		if r == roleID {
			return true
		}
	}
	return false
}

func removeString(list []string, s string) []string {
	out := list[:0:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
