// Package permission defines the closed set of capabilities a principal can hold.
package permission

import (
	"fmt"
	"sort"
	"strings"
)

type Permission string

const (
	Admin            Permission = "ADMIN"
	User             Permission = "USER"
	ItemCreate       Permission = "ITEMCREATE"
	ItemUpdate       Permission = "ITEMUPDATE"
	ItemDelete       Permission = "ITEMDELETE"
	PermissionUpdate Permission = "PERMISSIONUPDATE"
)

var all = []Permission{Admin, User, ItemCreate, ItemUpdate, ItemDelete, PermissionUpdate}

// All returns every known permission in declaration order.
func All() []Permission {
	out := make([]Permission, len(all))
	copy(out, all)
	return out
}

func (p Permission) Valid() bool {
	for _, known := range all {
		if p == known {
			return true
		}
	}
	return false
}

func (p Permission) String() string {
	return string(p)
}

// Parse accepts a permission name case-insensitively.
func Parse(s string) (Permission, error) {
	p := Permission(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown permission %q", s)
	}
	return p, nil
}

// ParseAll parses every name and removes duplicates. The result is sorted.
func ParseAll(names []string) ([]Permission, error) {
	seen := make(map[Permission]struct{}, len(names))
	out := make([]Permission, 0, len(names))
	for _, name := range names {
		p, err := Parse(name)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Strings converts a permission slice to plain strings.
func Strings(perms []Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}

// Dedupe drops repeated permissions, keeping first occurrences in order.
func Dedupe(perms []Permission) []Permission {
	seen := make(map[Permission]struct{}, len(perms))
	out := make([]Permission, 0, len(perms))
	for _, p := range perms {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
