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
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Me(ctx context.Context) error
	Ping(ctx context.Context) error
	Refresh(ctx context.Context) error
	Listen(ctx context.Context) error
	StopListening()
	AddFriend(ctx context.Context, args []string) error
	Requests(ctx context.Context) error
	Respond(ctx context.Context, args []string, action string) error
	Avatar(ctx context.Context, args []string) error
	Logout(ctx context.Context, allDevices bool) error
}

// runREPL reads commands from scanner and dispatches them to a until EOF,
// "exit" or "quit".
//
//	Not logged in:
//	  help, register, login, exit | quit
//
//	Logged in:
//	  help, me, ping, refresh, listen, stop, friend <user id>, requests,
//	  accept <request id>, reject <request id>, avatar <path>,
//	  logout, logoutall, exit | quit
//
// Command errors are reported by the handlers themselves and otherwise
// ignored so one failed call does not end the session.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("codemong %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: me, ping, refresh, listen, stop, friend <id>, requests, accept <id>, reject <id>, avatar <path>, logout, logoutall, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			if !a.isLoggedIn() {
				printlnFn("Please login first, or type 'help'")
				continue
			}
			dispatchLoggedIn(ctx, a, cmd, args)
		}
	}
}

func dispatchLoggedIn(ctx context.Context, a execIface, cmd string, args []string) {
	switch cmd {
	case "me":
		_ = a.Me(ctx)
	case "ping":
		_ = a.Ping(ctx)
	case "refresh":
		_ = a.Refresh(ctx)
	case "listen":
		_ = a.Listen(ctx)
	case "stop":
		a.StopListening()
	case "friend":
		_ = a.AddFriend(ctx, args)
	case "requests":
		_ = a.Requests(ctx)
	case "accept":
		_ = a.Respond(ctx, args, "accept")
	case "reject":
		_ = a.Respond(ctx, args, "reject")
	case "avatar":
		_ = a.Avatar(ctx, args)
	case "logout":
		_ = a.Logout(ctx, false)
	case "logoutall":
		_ = a.Logout(ctx, true)
	default:
		printlnFn("Unknown command:", cmd)
	}
}
