package app

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/doorkeep/doorkeep/internal/account"
	"github.com/doorkeep/doorkeep/internal/config"
	"github.com/doorkeep/doorkeep/internal/daemon"
	"github.com/doorkeep/doorkeep/internal/directory"
	"github.com/doorkeep/doorkeep/internal/identity"
	"github.com/doorkeep/doorkeep/internal/logger"
)

const passwordRequirements = `
Password Complexity Requirements
================================

* Your password must be at least 7 characters long.
* Your password must contain at least 3 of the 5 following complexity categories:
** Uppercase characters
** Lowercase characters
** Numbers
** Non-alphanumeric characters: ~!@#$%^&*_-+=` + "`" + `|\(){}[]:;"'<>,.?/
** Any unicode character that is alphabetic but not uppercase or lowercase (glyphs)
* Your password must not contain your username or full name.
`

// maxPasswordAttempts bounds the interactive retry loop on policy rejection.
const maxPasswordAttempts = 5

func init() { //nolint: gochecknoinits
	createPersonCmd.Flags().StringVar(&configPath, "config", "", "Path to the configuration directory")
	createPersonCmd.Flags().StringVarP(&personName, "name", "n", "", "Full name (\"First Last\")")
	createPersonCmd.Flags().StringVarP(&personEmail, "email", "m", "", "Email address")
	createPersonCmd.Flags().StringVarP(&personPassword, "password", "p", "", "Initial password (prompted if omitted)")

	rootCmd.AddCommand(createPersonCmd)
}

var (
	personName     string
	personEmail    string
	personPassword string

	createPersonCmd = &cobra.Command{
		Use:   "create-person <username>",
		Short: "Create a member account in the directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, errRead := config.ReadConfig(configPath)
			if errRead != nil {
				return errRead
			}

			if errLog := logger.Init(cfg.Log); errLog != nil {
				return errLog
			}

			svc, errNew := daemon.NewServices(&cfg)
			if errNew != nil {
				return errNew
			}
			defer svc.Close()

			return createPerson(svc.Accounts, args[0])
		},
	}
)

func createPerson(accounts *account.Service, username string) error {
	firstName, lastName := splitName(personName, username)

	password := personPassword
	if password == "" {
		var err error
		if password, err = promptPassword(); err != nil {
			return err
		}
	}

	principal, err := accounts.CreateSuperuser(account.CreateInput{
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		Email:     personEmail,
	})
	if err != nil {
		return err
	}

	if err = setPasswordWithRetry(accounts, principal, password); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "created %s (%s)\n", username, principal.GUID)

	return nil
}

// setPasswordWithRetry attempts to set the password and, on a directory
// policy rejection, prints the requirements and prompts again. The retry
// loop is bounded; any other failure propagates immediately.
func setPasswordWithRetry(accounts *account.Service, p *identity.Principal, password string) error {
	for attempt := 0; attempt < maxPasswordAttempts; attempt++ {
		err := accounts.SetPassword(p, password)
		if err == nil {
			return nil
		}

		if !errors.Is(err, directory.ErrConstraintViolation) {
			return err
		}

		fmt.Fprintf(os.Stdout, "%s\n", passwordRequirements)
		fmt.Fprintf(os.Stdout, "The directory rejected your password: %v\n", err)

		if password, err = promptPassword(); err != nil {
			return err
		}
	}

	return fmt.Errorf("password rejected after %d attempts: %w", maxPasswordAttempts, directory.ErrConstraintViolation)
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stdout, "Password: ")

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))

	fmt.Fprintln(os.Stdout)

	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	return string(raw), nil
}

// splitName splits a "First Last" flag value, falling back to the username
// when no name was given.
func splitName(name, username string) (string, string) {
	switch {
	case name == "":
		return username, ""
	case strings.Contains(name, " "):
		parts := strings.SplitN(name, " ", 2)
		return parts[0], parts[1]
	default:
		return name, ""
	}
}
