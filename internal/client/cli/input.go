package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Terminal access, replaced in tests.
var (
	stdinFD      = func() int { return int(os.Stdin.Fd()) }
	isTerminal   = term.IsTerminal
	readPassword = term.ReadPassword
)

// readText and readSecret are what the commands call.
var (
	readText   = promptLine
	readSecret = promptSecret
)

// promptLine writes "label: " and returns the next line without surrounding
// whitespace. A final line without a newline is still returned.
func promptLine(in *bufio.Reader, w io.Writer, label string) (string, error) {
	if _, err := fmt.Fprintf(w, "%s: ", label); err != nil {
		return "", err
	}
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads a password without echo when stdin is a terminal.
// Piped input is read as a plain line from in so scripted sessions work.
// Callers wipe the returned bytes.
func promptSecret(in *bufio.Reader, w io.Writer, label string) ([]byte, error) {
	fd := stdinFD()
	if !isTerminal(fd) {
		line, err := promptLine(in, w, label)
		if err != nil {
			return nil, err
		}
		return []byte(line), nil
	}

	if _, err := fmt.Fprintf(w, "%s: ", label); err != nil {
		return nil, err
	}
	secret, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return secret, nil
}
