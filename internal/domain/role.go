package domain

import (
	"encoding/json"
	"sort"
	"strings"
)

// Role is an authorization tag carried by a user.
type Role string

const (
	RoleSuperAdmin    Role = "super_admin"
	RoleAdminLayanan  Role = "admin_layanan"
	RoleAdminPenyedia Role = "admin_penyedia"
	RoleTeknisi       Role = "teknisi"
	RolePegawai       Role = "pegawai"
)

// RoleSet is the normalized set of roles a user holds.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from explicit roles, ignoring blanks.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		r = Role(strings.TrimSpace(string(r)))
		if r == "" {
			continue
		}
		set[r] = struct{}{}
	}
	return set
}

// ParseRoles normalizes any stored representation of a role collection.
// Native lists, JSON-encoded lists and a single bare role are accepted.
// Anything else yields an empty set.
func ParseRoles(raw any) RoleSet {
	switch v := raw.(type) {
	case nil:
		return RoleSet{}
	case RoleSet:
		return v
	case []Role:
		return NewRoleSet(v...)
	case []string:
		roles := make([]Role, 0, len(v))
		for _, s := range v {
			roles = append(roles, Role(s))
		}
		return NewRoleSet(roles...)
	case []any:
		roles := make([]Role, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				continue
			}
			roles = append(roles, Role(s))
		}
		return NewRoleSet(roles...)
	case json.RawMessage:
		return parseEncodedRoles([]byte(v))
	case []byte:
		return parseEncodedRoles(v)
	case string:
		return parseEncodedRoles([]byte(v))
	default:
		return RoleSet{}
	}
}

func parseEncodedRoles(data []byte) RoleSet {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return RoleSet{}
	}
	var list []string
	if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
		return ParseRoles(list)
	}
	// a list serialized twice arrives as a JSON string holding the list
	var inner string
	if err := json.Unmarshal([]byte(trimmed), &inner); err == nil {
		if strings.HasPrefix(strings.TrimSpace(inner), "[") {
			return parseEncodedRoles([]byte(inner))
		}
		return NewRoleSet(Role(inner))
	}
	if strings.ContainsAny(trimmed, "[]{}\",") {
		return RoleSet{}
	}
	return NewRoleSet(Role(trimmed))
}

func (s RoleSet) Has(role Role) bool {
	_, ok := s[role]
	return ok
}

// HasAny reports whether at least one of roles is held. No roles means false.
func (s RoleSet) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// HasAll reports whether every one of roles is held.
func (s RoleSet) HasAll(roles ...Role) bool {
	for _, r := range roles {
		if !s.Has(r) {
			return false
		}
	}
	return true
}

// List returns the roles sorted for stable output.
func (s RoleSet) List() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarshalJSON renders the set as a plain list.
func (s RoleSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

// UnmarshalJSON accepts any representation ParseRoles understands.
func (s *RoleSet) UnmarshalJSON(data []byte) error {
	*s = parseEncodedRoles(data)
	return nil
}

// IsAdmin reports unrestricted ticket visibility.
func (s RoleSet) IsAdmin() bool {
	return s.HasAny(RoleSuperAdmin, RoleAdminLayanan)
}
