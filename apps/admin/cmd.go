package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/sonhodourado/secretaria/core/msgtemplate"
	"github.com/sonhodourado/secretaria/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sqlx.DB
	usrSvc     user.ServiceInterface
	templates  *msgtemplate.Service
	validate   *validator.Validate
	translator ut.Translator
	out        io.Writer
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	out := cli.out
	if out == nil {
		out = os.Stdout
	}
	_, _ = fmt.Fprintf(out, format, args...)
}

func (cli *commandLine) printUsage() {
	cli.printf("Usage:\n")
	cli.printf("  migrate COMMAND [ARGS] - run a goose command (up, down, status, up-to VERSION...) on the embedded migrations\n")
	cli.printf("  adduser -username USERNAME [-email EMAIL] [-sector SECTOR] - create a user; the password is prompted next\n")
	cli.printf("  resetpassword -username USERNAME - reset user's password\n")
	cli.printf("  seed [-reset] - create the missing default message templates; -reset also restores edited ones\n")
}

// promptPassword reads a password without echoing it. An empty password prints the usage of fs.
func (cli *commandLine) promptPassword(fs *flag.FlagSet, prompt string) (string, error) {
	cli.printf("%s:", prompt)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	cli.printf("\n")
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username. The password will be prompted next.")
	addUserEmail := addUserCmd.String("email", "", "The user's email (optional).")
	addUserSector := addUserCmd.String("sector", user.SectorAdmin, "The user's sector: one of Administrador, Secretaria, Financeiro, Professor.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username. The password will be prompted next.")

	seedCmd := flag.NewFlagSet("seed", flag.ContinueOnError)
	seedReset := seedCmd.Bool("reset", false, "Overwrite edited default templates with their original text.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(addUserCmd, "Enter password")
		if err != nil {
			return err
		}
		confirm, err := cli.promptPassword(addUserCmd, "Confirm password")
		if err != nil {
			return err
		}
		return cli.addUser(user.NewUser{
			Username:        *addUserUname,
			Email:           *addUserEmail,
			Sector:          *addUserSector,
			Password:        pwd,
			PasswordConfirm: confirm,
		})

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(resetPasswordCmd, "Enter password")
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "seed":
		if err := seedCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.seed(*seedReset)

	default:
		cli.printUsage()
		return errHelp
	}
}
