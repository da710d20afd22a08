package utils

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// MinPasswordLength is enforced by PromptPasswordTwice.
const MinPasswordLength = 8

var ErrNotTerminal = errors.New("stdin is not a terminal")

// PromptPasswordTwice demande le mot de passe deux fois (saisie masquée)
// jusqu'à obtenir deux saisies identiques.
func PromptPasswordTwice(out io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNotTerminal
	}
	for {
		fmt.Fprint(out, "Enter password: ")
		pass1, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		if len(pass1) < MinPasswordLength {
			fmt.Fprintf(out, "Password must be at least %d characters.\n", MinPasswordLength)
			continue
		}
		fmt.Fprint(out, "Repeat password: ")
		pass2, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		if string(pass1) != string(pass2) {
			fmt.Fprintln(out, "Passwords do not match. Try again.")
			continue
		}
		return string(pass1), nil
	}
}
