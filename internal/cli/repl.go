package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	report(err error)

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	ChangeEmail(ctx context.Context) error
	WhoAmI(ctx context.Context) error

	Add(ctx context.Context) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	List(ctx context.Context) error
	Filter(ctx context.Context, args []string) error
	Today(ctx context.Context) error

	Upcoming(ctx context.Context, args []string) error
	Remind(ctx context.Context, args []string) error
	Export(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, login, help, exit"
	helpLoggedIn  = "Available commands: add, edit <id>, delete <id>, show <id>, (l)ist, " +
		"filter [date=yyyy-mm-dd] [category=Work] [keyword=text], today, upcoming [minutes], " +
		"remind <id>, export, passwd, email, whoami, logout, help, exit"
)

// commands that work without a session
var publicCommands = map[string]bool{
	"help": true, "register": true, "login": true, "exit": true, "quit": true,
}

// runREPL reads a line from reader, parses the first token as the command
// and dispatches to methods on a. The loop exits on EOF or when the user
// types "exit" or "quit".
//
// Errors returned by command handlers are reported through a and never end
// the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "gophcal%s> ", statusFn())

		line, err := readLine(reader)
		if err != nil {
			fmt.Fprintln(w)
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		if !publicCommands[cmd] && !a.isLoggedIn() {
			if _, known := dispatch(cmd); known {
				fmt.Fprintln(w, "Please login first")
			} else {
				fmt.Fprintln(w, "Unknown command:", cmd)
			}
			continue
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, helpLoggedIn)
			} else {
				fmt.Fprintln(w, helpLoggedOut)
			}

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			run, known := dispatch(cmd)
			if !known {
				fmt.Fprintln(w, "Unknown command:", cmd)
				continue
			}
			if err := run(ctx, a, args); err != nil {
				a.report(err)
			}
		}
	}
}

type handler func(ctx context.Context, a execIface, args []string) error

func dispatch(cmd string) (handler, bool) {
	switch cmd {
	case "register":
		return func(ctx context.Context, a execIface, _ []string) error { return a.Register(ctx) }, true
	case "login":
		return func(ctx context.Context, a execIface, _ []string) error { return a.Login(ctx) }, true
	case "logout":
		return func(ctx context.Context, a execIface, _ []string) error { return a.Logout(ctx) }, true
	case "passwd":
		return func(ctx context.Context, a execIface, _ []string) error { return a.ChangePassword(ctx) }, true
	case "email":
		return func(ctx context.Context, a execIface, _ []string) error { return a.ChangeEmail(ctx) }, true
	case "whoami":
		return func(ctx context.Context, a execIface, _ []string) error { return a.WhoAmI(ctx) }, true
	case "add":
		return func(ctx context.Context, a execIface, _ []string) error { return a.Add(ctx) }, true
	case "edit":
		return func(ctx context.Context, a execIface, args []string) error { return a.Edit(ctx, args) }, true
	case "delete":
		return func(ctx context.Context, a execIface, args []string) error { return a.Delete(ctx, args) }, true
	case "show":
		return func(ctx context.Context, a execIface, args []string) error { return a.Show(ctx, args) }, true
	case "l", "list":
		return func(ctx context.Context, a execIface, _ []string) error { return a.List(ctx) }, true
	case "filter":
		return func(ctx context.Context, a execIface, args []string) error { return a.Filter(ctx, args) }, true
	case "today":
		return func(ctx context.Context, a execIface, _ []string) error { return a.Today(ctx) }, true
	case "upcoming":
		return func(ctx context.Context, a execIface, args []string) error { return a.Upcoming(ctx, args) }, true
	case "remind":
		return func(ctx context.Context, a execIface, args []string) error { return a.Remind(ctx, args) }, true
	case "export":
		return func(ctx context.Context, a execIface, _ []string) error { return a.Export(ctx) }, true
	}
	return nil, false
}
