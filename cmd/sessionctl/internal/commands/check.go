package commands

import (
	"context"
	"errors"
	"fmt"
)

// ErrSessionInactive is returned by check so the process exits non-zero.
var ErrSessionInactive = errors.New("session is not active")

type CheckCmd struct {
	User    string `help:"User id" required:""`
	Session string `help:"Session id (the jti claim)" required:""`
}

func (c *CheckCmd) Run(ctx context.Context, globals *Globals) error {
	svc, closeFn, err := openService(ctx, globals)
	if err != nil {
		return err
	}
	defer closeFn()

	ok, err := svc.ValidateSessionExists(ctx, c.User, c.Session)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(globals.Out, "session %s of user %s: inactive\n", c.Session, c.User)
		return ErrSessionInactive
	}
	fmt.Fprintf(globals.Out, "session %s of user %s: active\n", c.Session, c.User)
	return nil
}
