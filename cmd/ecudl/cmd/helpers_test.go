package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ssargent/ecudatalog/pkg/codec"
	"github.com/ssargent/ecudatalog/pkg/config"
	"github.com/ssargent/ecudatalog/pkg/di"
	"github.com/ssargent/ecudatalog/pkg/log"
)

func newTestContainer(t *testing.T) *di.Container {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	c, err := di.NewContainer(cfg)
	require.NoError(t, err)
	c.SetLogger(log.NewNoopLogger())
	return c
}

func setFormat(t *testing.T, f string) {
	t.Helper()
	old := format
	format = f
	t.Cleanup(func() { format = old })
}

// writeFlashPro writes a plain FlashPro datalog with frames 50 ms apart.
// The first frame has fault flag 0 set.
func writeFlashPro(t *testing.T, dir string, frames int) string {
	t.Helper()
	h := codec.FlashProHeader{
		Identifier: codec.MakeIdentifier(codec.IdentFlashPro),
		Version:    codec.MakeVersion(2, 1, 0, 3),
		Serial:     4242,
		FrameCount: uint32(frames),
		FrameSize:  codec.FlashProFrameSize,
	}

	var buf bytes.Buffer
	buf.Write(h.Encode())
	for i := 0; i < frames; i++ {
		f := codec.FlashProFrame{FrameNumber: uint32(i), Offset: uint32(i * 50)}
		f.RPM = uint16(1000 + i)
		f.MAP = 1000
		f.Lambda = 32768
		f.Switches.VTEC = i%2 == 1
		if i == 0 {
			f.FaultCodes[0] = 0x01
		}
		rec, err := f.Encode(codec.FlashProFrameSize)
		require.NoError(t, err)
		buf.Write(rec)
	}

	path := filepath.Join(dir, "drive.fpdl")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

// writeKPro writes a KPro datalog with one frame and the given comments.
func writeKPro(t *testing.T, dir string, comments ...codec.Comment) string {
	t.Helper()
	h := codec.KProHeader{
		Identifier:   codec.MakeIdentifier(codec.IdentKPro),
		Version:      codec.MakeVersion(4, 0, 0, 1),
		Serial:       99,
		FrameCount:   1,
		FrameSize:    codec.KProFrameSize,
		CommentCount: uint32(len(comments)),
		Stoich:       1470,
	}

	var buf bytes.Buffer
	buf.Write(h.Encode())
	var f codec.KProFrame
	f.RPM = 900
	rec, err := f.Encode(codec.KProFrameSize)
	require.NoError(t, err)
	buf.Write(rec)
	for i := range comments {
		rec, err := comments[i].Encode()
		require.NoError(t, err)
		buf.Write(rec)
	}

	path := filepath.Join(dir, "track.kal")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}
