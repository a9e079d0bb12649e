package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/authgw/gateway/internal/audit"
	"github.com/authgw/gateway/internal/config"
	"github.com/authgw/gateway/internal/database"
)

type EventsCmd struct {
	User  string `help:"User id" required:""`
	Limit int64  `help:"Maximum number of events, newest first" default:"50"`
}

func (e *EventsCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.MongoDB.URI == "" {
		return errors.New("MONGODB_URI is not set: session events are only written to the gateway log")
	}
	client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 1)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	rec := audit.NewMongoRecorder(client.Database(cfg.MongoDB.Database).Collection(audit.CollectionName))
	events, err := rec.ListByUser(ctx, e.User, e.Limit)
	if err != nil {
		return err
	}
	return writeEvents(globals, events)
}

func writeEvents(globals *Globals, events []audit.Event) error {
	enc := json.NewEncoder(globals.Out)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}
	return nil
}
