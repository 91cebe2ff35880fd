// Package policy decides what a user may do with an asset. Every handler and
// report goes through a Policy instead of branching on roles itself.
package policy

import (
	"slices"

	"github.com/erazemk/sidak/internal/model"
)

// UnscopedAccess controls editors and viewers that have no granted units.
type UnscopedAccess string

const (
	// UnscopedAll treats an empty unit list as access to every unit.
	UnscopedAll UnscopedAccess = "all"
	// UnscopedNone treats an empty unit list as access to no unit.
	UnscopedNone UnscopedAccess = "none"
)

// Config is the explicit input that would otherwise live in global flags.
type Config struct {
	Unscoped UnscopedAccess
}

// Policy answers access questions. The zero value behaves like UnscopedAll.
type Policy struct {
	cfg Config
}

// New returns a Policy for cfg.
func New(cfg Config) Policy {
	if cfg.Unscoped != UnscopedNone {
		cfg.Unscoped = UnscopedAll
	}
	return Policy{cfg: cfg}
}

// Config returns the configuration the policy was built with.
func (p Policy) Config() Config {
	if p.cfg.Unscoped == "" {
		return Config{Unscoped: UnscopedAll}
	}
	return p.cfg
}

// inScope reports whether unit is within the principal's granted units.
func (p Policy) inScope(u model.Principal, unit string) bool {
	if len(u.AllowedUnits) == 0 {
		return p.cfg.Unscoped != UnscopedNone
	}
	return slices.Contains(u.AllowedUnits, unit)
}

// CanView reports whether u may see a.
func (p Policy) CanView(u model.Principal, a *model.Asset) bool {
	if a == nil {
		return false
	}
	if model.NormalizeRole(u.Role) == model.RoleAdmin {
		return true
	}
	return p.inScope(u, a.Unit)
}

// CanCreate reports whether u may create assets at all.
func (p Policy) CanCreate(u model.Principal) bool {
	return model.RoleAtLeast(model.NormalizeRole(u.Role), model.RoleEditor)
}

// CanEdit reports whether u may modify a. Creating an asset in a given unit
// is checked with CanEdit on the new record.
func (p Policy) CanEdit(u model.Principal, a *model.Asset) bool {
	if a == nil {
		return false
	}
	switch model.NormalizeRole(u.Role) {
	case model.RoleAdmin:
		return true
	case model.RoleEditor:
		return p.inScope(u, a.Unit)
	default:
		return false
	}
}

// CanDelete reports whether u may delete a. Only admins may.
func (p Policy) CanDelete(u model.Principal, a *model.Asset) bool {
	return a != nil && model.NormalizeRole(u.Role) == model.RoleAdmin
}

// CanManageUsers reports whether u may administer users and units.
func (p Policy) CanManageUsers(u model.Principal) bool {
	return model.NormalizeRole(u.Role) == model.RoleAdmin
}

// FilterVisible returns the assets u may view, in input order. The input is
// not modified.
func (p Policy) FilterVisible(u model.Principal, assets []model.Asset) []model.Asset {
	out := make([]model.Asset, 0, len(assets))
	for i := range assets {
		if p.CanView(u, &assets[i]) {
			out = append(out, assets[i])
		}
	}
	return out
}
