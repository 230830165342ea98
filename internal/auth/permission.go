package auth

import (
	errs "github.com/frahmantamala/storefront/internal"
	"github.com/frahmantamala/storefront/internal/core/permission"
)

// HasPermission succeeds when the principal holds at least one of anyOf.
// A nil principal or an empty permission set never satisfies a non-empty requirement.
func HasPermission(principal *User, anyOf ...permission.Permission) error {
	if principal == nil {
		return errs.ErrForbidden
	}
	if len(anyOf) == 0 {
		return nil
	}
	for _, required := range anyOf {
		if principal.HasPermission(required) {
			return nil
		}
	}
	return errs.ErrForbidden
}
