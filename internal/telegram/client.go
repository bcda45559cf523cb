// Package telegram is the MTProto backend of the upload workflow.
package telegram

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/peers"
	"go.uber.org/zap"

	"tg-upload/internal/config"
	"tg-upload/internal/logging"
	"tg-upload/internal/upload"
)

// Connector opens user-account sessions. The session is persisted in
// cfg.SessionFile so that interactive login is only needed once; peer
// access hashes are kept beside it.
type Connector struct {
	cfg           config.TelegramConfig
	authenticator auth.UserAuthenticator
	log           *zap.Logger
}

// NewConnector returns a Connector. A nil logger disables transport logs.
func NewConnector(cfg config.TelegramConfig, authenticator auth.UserAuthenticator, log *zap.Logger) *Connector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Connector{cfg: cfg, authenticator: authenticator, log: log}
}

// Connect runs fn inside an authenticated client. The connection is torn
// down when fn returns, on every path.
func (c *Connector) Connect(ctx context.Context, fn func(ctx context.Context, s upload.Session) error) error {
	if dir := filepath.Dir(c.cfg.SessionFile); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create session directory '%s': %w", dir, err)
		}
	}

	client := telegram.NewClient(c.cfg.APIID, c.cfg.APIHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: c.cfg.SessionFile},
		Logger:         c.log.Named("mtproto"),
	})

	return client.Run(ctx, func(ctx context.Context) error {
		flow := auth.NewFlow(c.authenticator, auth.SendCodeOptions{})
		if err := client.Auth().IfNecessary(ctx, flow); err != nil {
			return fmt.Errorf("authenticate %s: %w", c.cfg.Phone, err)
		}
		logging.Logf(logging.Debug, "Session authorized, using '%s'", c.cfg.SessionFile)

		store := openPeerStore(peerStorePath(c.cfg.SessionFile))
		defer func() {
			if err := store.Flush(); err != nil {
				logging.Logf(logging.Warning, "Could not save peer cache: %v", err)
			}
		}()

		api := client.API()
		s := &apiSession{
			api:    api,
			peers:  peers.Options{Storage: store, Logger: c.log.Named("peers")}.Build(api),
			sender: message.NewSender(api),
		}
		return fn(ctx, s)
	})
}
