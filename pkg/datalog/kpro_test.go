package datalog

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/ecudatalog/pkg/codec"
	"github.com/ssargent/ecudatalog/pkg/diag"
)

func loadKPro(t *testing.T, frames []codec.KProFrame, comments []codec.Comment) *KProLog {
	t.Helper()
	raw := kproBytes(t, testKProHeader(len(frames), len(comments)), frames, comments, nil)
	l, err := ReadKPro(bytes.NewReader(raw))
	require.NoError(t, err)
	return l
}

func TestReadKPro_RoundTrip(t *testing.T) {
	frames := []codec.KProFrame{testKProFrame(0), testKProFrame(1), testKProFrame(2)}
	comments := []codec.Comment{{Offset: 0.1, Text: "a"}, {Offset: 0.4, Text: ""}}
	footer := []byte{0xDE, 0xAD}
	raw := kproBytes(t, testKProHeader(3, 2), frames, comments, footer)

	l, err := ReadKPro(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 3, l.FrameCount())
	assert.Equal(t, 2, l.CommentCount())
	assert.Equal(t, footer, l.Footer)
	for i, f := range l.Frames.All() {
		assert.Equal(t, frames[i], f.KProFrame)
	}

	var out bytes.Buffer
	n, err := l.WriteTo(&out)
	require.NoError(t, err)
	assert.Equal(t, l.Size(), n)
	assert.Equal(t, raw, out.Bytes())
}

func TestKProLog_CommentRoundTrip(t *testing.T) {
	l := loadKPro(t, nil, nil)
	l.Comments.Add(NewComment(10.25, "mid"))
	l.Comments.Add(NewComment(42.0, "end"))
	l.Comments.Add(NewComment(1.5, "start"))

	var buf bytes.Buffer
	_, err := l.Save(&buf, false)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), l.Header.CommentCount)

	reloaded, err := ReadKPro(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, 3, reloaded.Comments.Len())

	want := []codec.Comment{{Offset: 1.5, Text: "start"}, {Offset: 10.25, Text: "mid"}, {Offset: 42.0, Text: "end"}}
	for i, c := range reloaded.Comments.All() {
		assert.Equal(t, want[i], c.Comment)
	}
}

func TestKProLog_SaveCompressedUnsupported(t *testing.T) {
	l := loadKPro(t, nil, nil)
	_, err := l.Save(&bytes.Buffer{}, true)
	assert.ErrorIs(t, err, codec.ErrUnsupported)
}

func TestReadKPro_TruncatedComment(t *testing.T) {
	raw := kproBytes(t, testKProHeader(0, 2), nil, []codec.Comment{{Offset: 1, Text: "hello"}}, nil)

	_, err := ReadKPro(bytes.NewReader(raw))
	assert.ErrorIs(t, err, codec.ErrMalformedRecord)
	assert.Contains(t, err.Error(), "comment 1 of 2")
}

func TestReadKPro_RejectsFlashPro(t *testing.T) {
	raw := flashProBytes(t, testFlashProHeader(0, 0), nil, nil)
	_, err := ReadKPro(bytes.NewReader(raw))
	assert.ErrorIs(t, err, codec.ErrInvalidFormat)
}

func TestKProFrame_Derived(t *testing.T) {
	frame := testKProFrame(0)
	copy(frame.FaultCodes[:], maskOf(codec.KProFaultBytes, 159))
	l := loadKPro(t, []codec.KProFrame{frame}, nil)
	f := l.Frames.At(0)

	assert.InDelta(t, 29491.0/32768*14.7, f.AFR(), 1e-9)
	assert.True(t, f.Faults().HasDTC("P0606"))

	r := f.Readiness()
	require.Len(t, r, len(diag.Tests))
	assert.Equal(t, diag.StateReady, r[0].State)
	assert.Equal(t, diag.StateNotReady, r[1].State)
	assert.Equal(t, diag.StateUnknown, r[2].State)

	samples := l.Samples(0, 1)
	require.Len(t, samples, 1)
	assert.Equal(t, r, samples[0].Readiness)
	assert.Equal(t, []string{"P0606"}, samples[0].Faults)
}

func TestKProLog_Duration(t *testing.T) {
	l := loadKPro(t, []codec.KProFrame{testKProFrame(0), testKProFrame(4)}, nil)
	assert.Equal(t, codec.SecondsToDuration(1), l.Duration())

	l.Comments.Add(NewComment(3, "late"))
	assert.Equal(t, codec.SecondsToDuration(3), l.Duration())
}
