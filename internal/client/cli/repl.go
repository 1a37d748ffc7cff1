package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

var errUsage = errors.New("usage")

// execIface is the command surface the REPL drives. App implements it;
// tests provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Users(ctx context.Context) error
	Send(ctx context.Context, args []string) error
	SendFile(ctx context.Context, args []string) error
	History(ctx context.Context, args []string) error
	Download(ctx context.Context, args []string) error
	Hide(ctx context.Context, args []string) error
}

var usage = map[string]string{
	"send":     "send <user>",
	"sendfile": "sendfile <user> <path>",
	"history":  "history <user>",
	"download": "download <message id>",
	"hide":     "hide <message id>",
}

// runREPL reads commands from scanner until EOF, "exit" or "quit".
// Command errors are printed and the loop goes on.
//
//	Not logged in: help, register, login, exit
//	Logged in:     help, users, send, sendfile, history, download, hide, logout, exit
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("sd %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: users, send, sendfile, history, download, hide, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			err = a.Register(ctx)

		case "login":
			err = a.Login(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "users":
			err = a.Users(ctx)

		case "send":
			err = a.Send(ctx, args)

		case "sendfile":
			err = a.SendFile(ctx, args)

		case "history":
			err = a.History(ctx, args)

		case "download":
			err = a.Download(ctx, args)

		case "hide":
			err = a.Hide(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		switch {
		case err == nil:
		case errors.Is(err, errUsage):
			printlnFn("Usage:", usage[cmd])
		default:
			printlnFn("Error:", err.Error())
		}
	}
}
