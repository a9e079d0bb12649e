package commands

import (
	"context"
	"fmt"
)

type RevokeAllCmd struct {
	User string `help:"User id whose sessions are revoked" required:""`
}

func (r *RevokeAllCmd) Run(ctx context.Context, globals *Globals) error {
	svc, closeFn, err := openService(ctx, globals)
	if err != nil {
		return err
	}
	defer closeFn()

	n, err := svc.RevokeAll(ctx, r.User)
	if err != nil {
		return fmt.Errorf("revoke sessions of %s: %w", r.User, err)
	}
	fmt.Fprintf(globals.Out, "revoked %d session(s) for user %s\n", n, r.User)
	return nil
}
