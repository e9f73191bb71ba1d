// Command pwhash prints seed values for the clients and users tables.
//
//	pwhash -u 617867E5-1B5F-45F4-8BDC-96A9109C3A27   # password digest for a user
//	pwhash -k                                        # fresh client API key
//
// The password is read from the terminal without echo, or from the first
// line of standard input when it is not a terminal.
package main

import (
	"bufio"
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/userdirectory/internal/buildinfo"
	"github.com/dmitrijs2005/userdirectory/internal/cryptox"
	"github.com/dmitrijs2005/userdirectory/internal/shared"
	"github.com/google/uuid"
	"golang.org/x/term"
)

// Test seams for terminal access.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "pwhash:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin *os.File, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("pwhash", flag.ContinueOnError)
	fs.SetOutput(stderr)
	rawID := fs.String("u", "", "user id (UUID) used as salt")
	newKey := fs.Bool("k", false, "print a new random client API key")
	version := fs.Bool("v", false, "print build information")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case *version:
		buildinfo.PrintBuildData(stdout)
		return nil
	case *newKey:
		key, err := shared.NewAPIKey()
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, key)
		return nil
	}

	userID, err := uuid.Parse(*rawID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", *rawID, err)
	}

	password, err := readSecret(stdin, stderr)
	defer shared.Wipe(password)
	if err != nil {
		return err
	}
	if len(password) == 0 {
		return errors.New("empty password")
	}

	fmt.Fprintln(stdout, cryptox.NewPasswordHasher().HashBytes(userID, password))
	return nil
}

func readSecret(stdin *os.File, prompt io.Writer) ([]byte, error) {
	fd := int(stdin.Fd())
	if !isTerminal(fd) {
		line, err := bufio.NewReader(stdin).ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return bytes.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(prompt, "Enter password: ")
	pw, err := readPassword(fd)
	fmt.Fprintln(prompt)
	return pw, err
}
