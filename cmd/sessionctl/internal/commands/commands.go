package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/authgw/gateway/internal/config"
	"github.com/authgw/gateway/internal/database"
	"github.com/authgw/gateway/internal/sessions"
	"github.com/authgw/gateway/internal/tokens"
	"github.com/authgw/gateway/pkg/logger"
)

type Globals struct {
	Debug   bool
	Version string
	Out     io.Writer
}

// openService builds the session engine against the gateway's Redis from the gateway's
// own configuration. The returned func closes the store.
func openService(ctx context.Context, globals *Globals) (*sessions.Service, func(), error) {
	if globals.Debug {
		logger.Init("debug")
	} else {
		logger.Init("warn")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	rdb, err := database.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr(), err)
	}
	codec, err := tokens.NewCodec(cfg.JWT)
	if err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	store := sessions.NewRedisStore(rdb)
	return sessions.NewService(store, codec), func() { _ = store.Close() }, nil
}
