package telegram

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gotd/td/telegram/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-upload/internal/upload"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	jpegHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
)

func TestDetectMedia(t *testing.T) {
	testCases := []struct {
		name          string
		file          string
		content       []byte
		size          int64
		forceDocument bool
		expectedKind  mediaKind
		expectedMIME  string
	}{
		{"PNG As Photo", "a.png", pngHeader, 1024, false, kindPhoto, "image/png"},
		{"JPEG As Photo", "a.jpg", jpegHeader, 1024, false, kindPhoto, "image/jpeg"},
		{"Forced Document", "a.png", pngHeader, 1024, true, kindDocument, "image/png"},
		{"Oversized Photo", "big.png", pngHeader, maxPhotoSize + 1, false, kindDocument, "image/png"},
		{"Text Document", "notes.txt", []byte("release notes\n"), 14, false, kindDocument, "text/plain"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, tc.file, tc.content)
			info, err := detectMedia(path, tc.size, tc.forceDocument)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedKind, info.kind)
			assert.Equal(t, tc.expectedMIME, info.mime)
		})
	}
}

func TestDetectMedia_MissingFile(t *testing.T) {
	_, err := detectMedia(filepath.Join(t.TempDir(), "gone.bin"), 0, false)
	assert.Error(t, err)
}

func TestProgressChunk(t *testing.T) {
	var gotSent, gotTotal int64
	p := progress{fn: func(sent, total int64) { gotSent, gotTotal = sent, total }}

	err := p.Chunk(context.Background(), uploader.ProgressState{Uploaded: 512, Total: 2048})
	require.NoError(t, err)
	assert.Equal(t, int64(512), gotSent)
	assert.Equal(t, int64(2048), gotTotal)

	assert.NoError(t, progress{}.Chunk(context.Background(), uploader.ProgressState{}))
}

func TestSend_RejectsEntityWithoutPeer(t *testing.T) {
	s := &apiSession{}
	err := s.Send(context.Background(), upload.SendRequest{Entity: upload.Entity{ID: 9, Title: "x"}})
	assert.ErrorContains(t, err, "entity 9 has no input peer")
}
