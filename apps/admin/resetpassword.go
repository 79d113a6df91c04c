package main

import (
	"context"

	"github.com/napthedev/edura/core/user"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		return err
	}
	if _, err := cli.usrSvc.Update(ctx, usr, user.UpdateUser{
		Name:            usr.Name,
		Username:        usr.Username,
		Email:           usr.Email,
		Password:        pwd,
		PasswordConfirm: pwd,
	}); err != nil {
		return err
	}
	logger.Printf("password reset for %q", usr.Username)
	return nil
}
