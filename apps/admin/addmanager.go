package main

import (
	"context"

	"github.com/napthedev/edura/core/user"
)

// addManager creates a new manager account. Managers are the roots of the
// ownership graph, so they can only be provisioned here.
func (cli *commandLine) addManager(name, uname, email, pwd string) error {
	nu := user.NewUser{
		Name:            name,
		Username:        uname,
		Email:           email,
		Password:        pwd,
		PasswordConfirm: pwd,
		Role:            user.RoleManager,
	}

	ctx := context.Background()
	if err := nu.Validate(ctx, cli.usrSvc); err != nil {
		return err
	}
	usr, err := cli.usrSvc.Create(ctx, nu)
	if err != nil {
		return err
	}
	logger.Printf("manager %q created (id=%s)", usr.Username, usr.ID)
	return nil
}
