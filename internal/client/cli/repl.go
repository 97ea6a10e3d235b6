package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Otp(ctx context.Context) error
	Calls(ctx context.Context) error
	Watch(ctx context.Context) error
	Logout(ctx context.Context) error
}

func printHelp(loggedIn bool) {
	if !loggedIn {
		printlnFn("Commands: login, help, exit")
		return
	}
	printlnFn("Commands: otp, calls, watch, logout, help, exit")
}

// runREPL reads a line, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back. The
// loop exits on scanner EOF or when the user types "exit" or "quit".
//
// Errors returned by command handlers are ignored here; handlers print
// their own diagnostics. This keeps the loop focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		fmt.Printf("[%s] > ", statusFn())
		if !scanner.Scan() {
			return
		}

		cmd := strings.ToLower(strings.TrimSpace(strings.SplitN(scanner.Text(), " ", 2)[0]))

		switch cmd {
		case "":
			continue
		case "exit", "quit":
			return
		case "help":
			printHelp(a.isLoggedIn())
		case "login":
			if a.isLoggedIn() {
				printlnFn("Already logged in.")
				continue
			}
			_ = a.Login(ctx)
		case "otp":
			_ = a.Otp(ctx)
		case "calls":
			_ = a.Calls(ctx)
		case "watch":
			_ = a.Watch(ctx)
		case "logout":
			if !a.isLoggedIn() {
				printlnFn("Not logged in.")
				continue
			}
			_ = a.Logout(ctx)
		default:
			printlnFn("Unknown command:", cmd)
			printHelp(a.isLoggedIn())
		}
	}
}
