package admincli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/docshare/internal/server/models"
	"github.com/dmitrijs2005/docshare/internal/server/services"
)

var ErrPasswordMismatch = errors.New("passwords do not match")

// AdminRegistrar creates Admin accounts.
type AdminRegistrar interface {
	RegisterAdmin(ctx context.Context, r services.Registration) (*models.User, error)
}

type Command struct {
	Users AdminRegistrar
	In    *bufio.Reader
	Out   io.Writer
}

// CreateAdmin prompts for whatever of username and email is empty, then
// for the password twice, and creates the account.
func (c *Command) CreateAdmin(ctx context.Context, username, email string) (*models.User, error) {
	var err error
	if username == "" {
		if username, err = GetSimpleText(c.In, "Enter admin username", c.Out); err != nil {
			return nil, err
		}
	}
	if email == "" {
		if email, err = GetSimpleText(c.In, "Enter admin email", c.Out); err != nil {
			return nil, err
		}
	}

	pw, err := GetPassword("Enter password", c.Out)
	if err != nil {
		return nil, err
	}
	defer wipe(pw)
	confirm, err := GetPassword("Repeat password", c.Out)
	if err != nil {
		return nil, err
	}
	defer wipe(confirm)

	if string(pw) != string(confirm) {
		return nil, ErrPasswordMismatch
	}

	u, err := c.Users.RegisterAdmin(ctx, services.Registration{
		Username: username,
		Email:    email,
		Password: string(pw),
	})
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(c.Out, "Admin %q created (id %s)\n", u.UserName, u.ID)
	return u, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
