package main

import (
	"context"
	"fmt"

	"github.com/scibridge/scibridge/core/account"
	"github.com/scibridge/scibridge/core/authz"
)

// addUser creates a verified account, skipping the email round trip.
func (cli *commandLine) addUser(name, email, pwd, role, org string) error {
	r, err := authz.ParseRole(role)
	if err != nil {
		return err
	}
	prof, err := cli.accSvc.CreateVerified(context.Background(), account.NewVerifiedAccount{
		NewAccount: account.NewAccount{
			Name:     name,
			Email:    email,
			Password: pwd,
		},
		Role:         r,
		Organization: org,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "created %s (%s) with role %s\n", prof.Email, prof.ID, prof.Role)
	return nil
}

// setRole changes an account's role. A nil org keeps the current organization.
func (cli *commandLine) setRole(email, role string, org *string) error {
	r, err := authz.ParseRole(role)
	if err != nil {
		return err
	}
	ctx := context.Background()
	acc, err := cli.accSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	newOrg := acc.Organization
	if org != nil {
		newOrg = *org
	}
	if acc, err = cli.accSvc.UpdateRole(ctx, acc.ID, r, newOrg); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s is now %s\n", acc.Email, acc.Role)
	return nil
}

// setStatus bans or reinstates an account.
func (cli *commandLine) setStatus(email, status string) error {
	s, err := account.ParseStatus(status)
	if err != nil {
		return err
	}
	ctx := context.Background()
	acc, err := cli.accSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if acc, err = cli.accSvc.UpdateStatus(ctx, acc.ID, s); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s is now %s\n", acc.Email, acc.Status)
	return nil
}
