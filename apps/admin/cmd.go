package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/scibridge/scibridge/core/account"
	"github.com/scibridge/scibridge/core/authz"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

// accountService is the part of account.Service the CLI drives.
type accountService interface {
	CreateVerified(ctx context.Context, nva account.NewVerifiedAccount) (account.Profile, error)
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	UpdateRole(ctx context.Context, id string, role authz.Role, org string) (account.Account, error)
	UpdateStatus(ctx context.Context, id string, status account.Status) (account.Account, error)
}

type commandLine struct {
	accSvc accountService
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -name NAME -email EMAIL [-role ROLE] [-org ORG] - create a verified account; the password is prompted")
	fmt.Fprintln(cli.out, "  setrole -email EMAIL -role ROLE [-org ORG]              - change an account's role and organization")
	fmt.Fprintln(cli.out, "  setstatus -email EMAIL -status active|banned           - ban or reinstate an account")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserCmd.SetOutput(cli.out)
	addUserName := addUserCmd.String("name", "", "The account holder's display name.")
	addUserEmail := addUserCmd.String("email", "", "The account's email. The password will be prompted next.")
	addUserRole := addUserCmd.String("role", string(authz.RoleAdmin), "One of student, teacher, admin.")
	addUserOrg := addUserCmd.String("org", "", "The account's organization.")

	setRoleCmd := flag.NewFlagSet("setrole", flag.ContinueOnError)
	setRoleCmd.SetOutput(cli.out)
	setRoleEmail := setRoleCmd.String("email", "", "The account's email.")
	setRoleRole := setRoleCmd.String("role", "", "One of student, teacher, admin.")
	setRoleOrg := setRoleCmd.String("org", "", "The new organization. Unchanged when omitted.")

	setStatusCmd := flag.NewFlagSet("setstatus", flag.ContinueOnError)
	setStatusCmd.SetOutput(cli.out)
	setStatusEmail := setStatusCmd.String("email", "", "The account's email.")
	setStatusStatus := setStatusCmd.String("status", "", "Either active or banned.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserName == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserEmail, string(pwd), *addUserRole, *addUserOrg)

	case "setrole":
		if err := setRoleCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *setRoleEmail == "" || *setRoleRole == "" {
			setRoleCmd.Usage()
			return errHelp
		}
		var org *string
		setRoleCmd.Visit(func(f *flag.Flag) {
			if f.Name == "org" {
				org = setRoleOrg
			}
		})
		return cli.setRole(*setRoleEmail, *setRoleRole, org)

	case "setstatus":
		if err := setStatusCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *setStatusEmail == "" || *setStatusStatus == "" {
			setStatusCmd.Usage()
			return errHelp
		}
		return cli.setStatus(*setStatusEmail, *setStatusStatus)

	default:
		cli.printUsage()
		return errHelp
	}
}
