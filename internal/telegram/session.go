package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gotd/td/constant"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/message/styling"
	"github.com/gotd/td/telegram/peers"
	"github.com/gotd/td/telegram/query"
	"github.com/gotd/td/telegram/uploader"
	"github.com/gotd/td/tg"

	"tg-upload/internal/logging"
	"tg-upload/internal/upload"
)

// maxPhotoSize is the largest file Telegram accepts as a photo.
const maxPhotoSize = 10 << 20

var photoTypes = []string{"image/jpeg", "image/png", "image/webp"}

const (
	dialogBatchSize = 100
	// maxScannedDialogs bounds the fallback scan for uncached numeric IDs.
	maxScannedDialogs = 1000
)

// apiSession implements upload.Session over an authorized client.
type apiSession struct {
	api    *tg.Client
	peers  *peers.Manager
	sender *message.Sender
}

// Resolve performs one lookup. Numeric destinations use marked IDs: positive
// for users, -N for basic groups, -100N for channels and supergroups.
// Users and channels need an access hash; when none is cached the account's
// dialogs are scanned once for the ID.
func (s *apiSession) Resolve(ctx context.Context, dest upload.Destination) (upload.Entity, error) {
	var (
		p   peers.Peer
		err error
	)
	if dest.Numeric {
		p, err = s.resolveID(ctx, constant.TDLibPeerID(dest.ID))
	} else {
		p, err = s.peers.ResolveDomain(ctx, dest.Handle)
	}
	if err != nil {
		return upload.Entity{}, classifyResolve(err)
	}
	return upload.Entity{
		ID:    p.ID(),
		Title: p.VisibleName(),
		Peer:  p.InputPeer(),
	}, nil
}

func (s *apiSession) resolveID(ctx context.Context, id constant.TDLibPeerID) (peers.Peer, error) {
	p, err := s.peers.ResolveTDLibID(ctx, id)
	if err == nil || id.IsChat() || !isNotFound(err) {
		return p, err
	}

	logging.Logf(logging.Debug, "No access hash cached for %d, scanning dialogs", id)
	found, ok, scanErr := s.findInDialogs(ctx, id)
	if scanErr != nil {
		return nil, fmt.Errorf("scan dialogs: %w", scanErr)
	}
	if !ok {
		return nil, err
	}
	return found, nil
}

// findInDialogs walks the account's dialogs looking for id. A match is
// applied to the peer manager so its access hash is stored.
func (s *apiSession) findInDialogs(ctx context.Context, id constant.TDLibPeerID) (peers.Peer, bool, error) {
	iter := query.GetDialogs(s.api).BatchSize(dialogBatchSize).Iter()
	for n := 0; n < maxScannedDialogs && iter.Next(ctx); n++ {
		elem := iter.Value()
		if markedID(elem.Dialog.GetPeer()) != id {
			continue
		}

		switch plain := id.ToPlain(); {
		case id.IsUser():
			u, ok := elem.Entities.User(plain)
			if !ok {
				return nil, false, nil
			}
			if err := s.peers.Apply(ctx, []tg.UserClass{u}, nil); err != nil {
				logging.Logf(logging.Warning, "Could not store user %d: %v", plain, err)
			}
			return s.peers.User(u), true, nil
		case id.IsChannel():
			c, ok := elem.Entities.Channel(plain)
			if !ok {
				return nil, false, nil
			}
			if err := s.peers.Apply(ctx, nil, []tg.ChatClass{c}); err != nil {
				logging.Logf(logging.Warning, "Could not store channel %d: %v", plain, err)
			}
			return s.peers.Channel(c), true, nil
		}
		return nil, false, nil
	}
	return nil, false, iter.Err()
}

// markedID converts a peer to its marked numeric form, or 0.
func markedID(p tg.PeerClass) constant.TDLibPeerID {
	var id constant.TDLibPeerID
	switch p := p.(type) {
	case *tg.PeerUser:
		id.User(p.UserID)
	case *tg.PeerChat:
		id.Chat(p.ChatID)
	case *tg.PeerChannel:
		id.Channel(p.ChannelID)
	}
	return id
}

// Send uploads the file in parts and posts it to the resolved peer.
func (s *apiSession) Send(ctx context.Context, req upload.SendRequest) error {
	peer, ok := req.Entity.Peer.(tg.InputPeerClass)
	if !ok {
		return fmt.Errorf("entity %d has no input peer", req.Entity.ID)
	}

	media, err := detectMedia(req.Path, req.Size, req.ForceDocument)
	if err != nil {
		return err
	}
	logging.Logf(logging.Debug, "Sending '%s' as %s (%s)", req.Name, media.kind, media.mime)

	up := uploader.NewUploader(s.api).WithProgress(progress{fn: req.Progress})
	file, err := up.FromPath(ctx, req.Path)
	if err != nil {
		return classify(fmt.Errorf("upload parts: %w", err))
	}

	if _, err := s.sender.To(peer).Media(ctx, media.option(file, req.Name, req.Caption)); err != nil {
		return classify(fmt.Errorf("send media: %w", err))
	}
	return nil
}

type mediaKind string

const (
	kindPhoto    mediaKind = "photo"
	kindDocument mediaKind = "document"
)

type mediaInfo struct {
	kind mediaKind
	mime string
}

// detectMedia sniffs the file content. Small JPEG, PNG and WebP images are
// sent as photos unless forceDocument is set.
func detectMedia(path string, size int64, forceDocument bool) (mediaInfo, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return mediaInfo{}, fmt.Errorf("detect media type of '%s': %w", path, err)
	}
	info := mediaInfo{kind: kindDocument, mime: strings.TrimSpace(strings.SplitN(mt.String(), ";", 2)[0])}
	if forceDocument || size > maxPhotoSize {
		return info, nil
	}
	for _, t := range photoTypes {
		if mt.Is(t) {
			info.kind = kindPhoto
			break
		}
	}
	return info, nil
}

func (m mediaInfo) option(file tg.InputFileClass, name, caption string) message.MediaOption {
	var styled []styling.StyledTextOption
	if caption != "" {
		styled = append(styled, styling.Plain(caption))
	}
	if m.kind == kindPhoto {
		return message.UploadedPhoto(file, styled...)
	}
	return message.UploadedDocument(file, styled...).Filename(name).MIME(m.mime)
}

// progress adapts upload.ProgressFunc to the uploader's chunk callback.
type progress struct {
	fn upload.ProgressFunc
}

func (p progress) Chunk(_ context.Context, state uploader.ProgressState) error {
	if p.fn != nil {
		p.fn(state.Uploaded, state.Total)
	}
	return nil
}
