package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context, args []string) error
	Add(ctx context.Context) error
	SetStatus(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Stats(ctx context.Context) error
	Files(ctx context.Context) error
	Upload(ctx context.Context, args []string) error
	Link(ctx context.Context, args []string) error
	Download(ctx context.Context, args []string) error
	RemoveFile(ctx context.Context, args []string) error
}

// runREPL reads commands line by line and dispatches them until EOF or
// "exit". Handlers print their own errors.
//
//	Not logged in: help, register, login, exit
//	Logged in:     help, profile, (l)ist, show <id>, add, status <id> <status>,
//	               delete <id>, stats, files, upload <path>, link <file>,
//	               download <file>, rmfile <file>, logout, exit
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader, out io.Writer) {
	for {
		fmt.Fprintf(out, "it %s> ", statusFn())
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			fmt.Fprintln(out, "Bye!")
			return
		}
		if cmd == "help" {
			if a.isLoggedIn() {
				fmt.Fprintln(out, "Available commands: profile, (l)ist, show, add, status, delete, stats, files, upload, link, download, rmfile, logout, exit")
			} else {
				fmt.Fprintln(out, "Available commands: register, login, exit")
			}
			continue
		}

		if !a.isLoggedIn() {
			switch cmd {
			case "register":
				_ = a.Register(ctx)
			case "login":
				_ = a.Login(ctx)
			default:
				fmt.Fprintln(out, "Unknown command:", cmd, "(log in first?)")
			}
			continue
		}

		switch cmd {
		case "profile":
			_ = a.Profile(ctx)
		case "l", "list":
			_ = a.List(ctx)
		case "show":
			_ = a.Show(ctx, args)
		case "add":
			_ = a.Add(ctx)
		case "status":
			_ = a.SetStatus(ctx, args)
		case "delete":
			_ = a.Delete(ctx, args)
		case "stats":
			_ = a.Stats(ctx)
		case "files":
			_ = a.Files(ctx)
		case "upload":
			_ = a.Upload(ctx, args)
		case "link":
			_ = a.Link(ctx, args)
		case "download":
			_ = a.Download(ctx, args)
		case "rmfile":
			_ = a.RemoveFile(ctx, args)
		case "logout":
			_ = a.Logout(ctx)
		default:
			fmt.Fprintln(out, "Unknown command:", cmd)
		}
	}
}
