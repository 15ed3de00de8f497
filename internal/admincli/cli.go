// Package admincli implements the operator tool that prepares values for the
// server configuration.
package admincli

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
	"github.com/dmitrijs2005/pagekeeper/internal/server/services"
)

// Seams for tests.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
	stdinFd      = func() int { return int(os.Stdin.Fd()) }
)

var errPasswordMismatch = errors.New("passwords do not match")

const usage = `usage: pagekeeper-cli <command>

commands:
  hash-password   read a password and print its bcrypt hash for admin_password_hash
  help            show this message
`

// Run executes the command named by args[0] and returns the process exit code.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	switch args[0] {
	case "hash-password":
		if err := hashPassword(stdin, stdout, stderr); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
		return 0
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}
}

// hashPassword prompts twice on a terminal; piped input is read as a single
// line.
func hashPassword(stdin io.Reader, stdout, stderr io.Writer) error {
	var password []byte

	if isTerminal(stdinFd()) {
		first, err := prompt(stderr, "Enter password: ")
		if err != nil {
			return err
		}
		defer common.WipeByteArray(first)

		second, err := prompt(stderr, "Repeat password: ")
		if err != nil {
			return err
		}
		defer common.WipeByteArray(second)

		if !bytes.Equal(first, second) {
			return errPasswordMismatch
		}
		password = first
	} else {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		password = []byte(strings.TrimRight(line, "\r\n"))
		defer common.WipeByteArray(password)
	}

	hash, err := services.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, string(hash))
	return err
}

func prompt(w io.Writer, text string) ([]byte, error) {
	if _, err := fmt.Fprint(w, text); err != nil {
		return nil, err
	}
	pw, err := readPassword(stdinFd())
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}
