package user

import (
	errs "github.com/frahmantamala/storefront/internal"
	"github.com/frahmantamala/storefront/internal/core/permission"
)

type UpdatePermissionsDTO struct {
	Permissions []string `json:"permissions"`
}

// Parse validates the requested names and returns them deduplicated.
func (dto UpdatePermissionsDTO) Parse() ([]permission.Permission, error) {
	perms, err := permission.ParseAll(dto.Permissions)
	if err != nil {
		return nil, errs.NewValidationFieldError("permissions", err.Error(), errs.ErrCodeInvalidPermission)
	}
	return perms, nil
}

type UsersResponse struct {
	Users []*User `json:"users"`
}
