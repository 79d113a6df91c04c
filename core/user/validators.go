package user

import (
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/napthedev/edura/core"
)

var (
	userRoleTag  = "userrole"
	userRoleText = "invalid role"
)

func init() {
	_ = core.Validate.RegisterValidation(userRoleTag, userRoleValidation)
	core.RegisterCustomTranslation(userRoleTag, userRoleText)
}

// userRoleValidation only allows known roles.
func userRoleValidation(fl validator.FieldLevel) bool {
	return lo.Contains(AllRoles, fl.Field().String())
}
