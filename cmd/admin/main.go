// Command admin creates an Admin account in the configured database.
//
//	admin [-c config.json] [-d dsn] [--username name] [--email addr]
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/docshare/internal/admincli"
	"github.com/dmitrijs2005/docshare/internal/flagx"
	"github.com/dmitrijs2005/docshare/internal/logging"
	"github.com/dmitrijs2005/docshare/internal/server"
	"github.com/dmitrijs2005/docshare/internal/server/config"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var username, email string
	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&username, "username", "", "admin username")
	fs.StringVar(&email, "email", "", "admin email")
	if err := fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-username", "-email"})); err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := logging.NewJSONLogger(os.Stderr, "warn")
	users, db, err := server.OpenUserService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	cmd := &admincli.Command{Users: users, In: bufio.NewReader(os.Stdin), Out: os.Stdout}
	_, err = cmd.CreateAdmin(ctx, username, email)
	return err
}
