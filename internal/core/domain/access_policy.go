package domain

import (
	"fmt"
	"strings"
)

// Access policy names accepted by configuration
const (
	PolicyOpen           = "open"
	PolicyRoleGated      = "role-gated"
	PolicyServerEnforced = "server-enforced"
)

// AccessPolicy decides who may return a given book
type AccessPolicy interface {
	Name() string
	CanReturn(actor Actor, book *Book, force bool) bool
}

// OpenPolicy lets the borrower return, or anyone with force
type OpenPolicy struct{}

func (OpenPolicy) Name() string { return PolicyOpen }

func (OpenPolicy) CanReturn(actor Actor, book *Book, force bool) bool {
	if force {
		return true
	}
	return actor.StudentID != "" && actor.StudentID == book.BorrowedBy()
}

// RoleGatedPolicy reserves returns to admins. Borrower and force are ignored.
type RoleGatedPolicy struct{}

func (RoleGatedPolicy) Name() string { return PolicyRoleGated }

func (RoleGatedPolicy) CanReturn(actor Actor, _ *Book, _ bool) bool {
	return actor.IsAdmin()
}

// ServerEnforcedPolicy is the role-gated rule, but a role claimed by the
// client is not enough: the actor must come from a verified token.
type ServerEnforcedPolicy struct{}

func (ServerEnforcedPolicy) Name() string { return PolicyServerEnforced }

func (ServerEnforcedPolicy) CanReturn(actor Actor, book *Book, force bool) bool {
	return actor.Verified && RoleGatedPolicy{}.CanReturn(actor, book, force)
}

// ParsePolicy resolves a configured policy name
func ParsePolicy(name string) (AccessPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PolicyOpen:
		return OpenPolicy{}, nil
	case PolicyRoleGated:
		return RoleGatedPolicy{}, nil
	case PolicyServerEnforced:
		return ServerEnforcedPolicy{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}
