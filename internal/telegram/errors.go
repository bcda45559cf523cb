package telegram

import (
	"errors"
	"fmt"

	"github.com/gotd/td/telegram/peers"
	"github.com/gotd/td/tgerr"

	"tg-upload/internal/upload"
)

// notFoundTypes are RPC error types meaning the destination does not exist
// or is not visible to this account.
var notFoundTypes = []string{
	"USERNAME_NOT_OCCUPIED",
	"USERNAME_INVALID",
	"PEER_ID_INVALID",
	"USER_ID_INVALID",
	"CHANNEL_INVALID",
	"CHANNEL_PRIVATE",
	"CHAT_ID_INVALID",
}

// classify maps RPC errors onto the workflow's error types and leaves
// everything else untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	rpcErr, ok := tgerr.As(err)
	if !ok {
		return err
	}
	if wait, ok := tgerr.AsFloodWait(err); ok {
		return &upload.RateLimitError{Wait: wait, Code: rpcErr.Code, Message: rpcErr.Message}
	}
	return &upload.RemoteError{Code: rpcErr.Code, Message: rpcErr.Message}
}

// isNotFound reports whether a lookup failed because the peer is unknown,
// either to the server or to the local access hash store.
func isNotFound(err error) bool {
	var pnf *peers.PeerNotFoundError
	return errors.As(err, &pnf) || tgerr.Is(err, notFoundTypes...)
}

func classifyResolve(err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %w", upload.ErrEntityNotFound, err)
	}
	return err
}
