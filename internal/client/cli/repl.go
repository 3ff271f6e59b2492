package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printFn and printlnFn are test seams for user-facing output.
var (
	printFn   = fmt.Print
	printlnFn = fmt.Println
)

// execIface is the command surface the REPL dispatches to. *App satisfies
// it; tests provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	ShowProfile(ctx context.Context) error
	Complete(ctx context.Context, args []string) error
	Unlock(ctx context.Context, args []string) error
	Rename(ctx context.Context, args []string) error
	Onboard(ctx context.Context) error
	Refresh(ctx context.Context) error
	Dashboard(ctx context.Context) error
}

// runREPL reads commands line by line from in and dispatches them to a
// until EOF, "exit" or "quit". Handler errors are reported and the loop
// keeps going.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader) {
	for {
		printFn(fmt.Sprintf("ps %s> ", statusFn()))

		line, err := in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: profile, complete <itemId> [xp] [title...], unlock <itemId>, name <first> [last], onboard, refresh, dashboard, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			report(a.Register(ctx))

		case "login":
			report(a.Login(ctx))

		case "logout":
			report(a.Logout(ctx))

		case "profile":
			report(a.ShowProfile(ctx))

		case "complete":
			report(a.Complete(ctx, args))

		case "unlock":
			report(a.Unlock(ctx, args))

		case "name":
			report(a.Rename(ctx, args))

		case "onboard":
			report(a.Onboard(ctx))

		case "refresh":
			report(a.Refresh(ctx))

		case "dashboard":
			report(a.Dashboard(ctx))

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
