package datalog

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/ecudatalog/pkg/codec"
)

func frameAt(ms uint32, rpm uint16) *FlashProFrame {
	f := NewFlashProFrame(codec.FlashProFrame{Offset: ms})
	f.RPM = rpm
	return f
}

func TestCollection_OrderingAndTies(t *testing.T) {
	l := emptyFlashPro(t)
	c := l.Frames

	inserts := []*FlashProFrame{
		frameAt(300, 1),
		frameAt(100, 2),
		frameAt(200, 3),
		frameAt(100, 4),
		frameAt(0, 5),
		frameAt(200, 6),
		frameAt(100, 7),
	}
	for _, f := range inserts {
		c.Add(f)
	}

	var got []uint16
	for _, f := range c.All() {
		got = append(got, f.RPM)
	}
	assert.Equal(t, []uint16{5, 2, 4, 7, 3, 6, 1}, got)

	all := c.All()
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].Offset, all[i].Offset)
	}
}

func TestCollection_AllIsSnapshot(t *testing.T) {
	l := emptyFlashPro(t)
	l.Frames.Add(frameAt(10, 1))
	l.Frames.Add(frameAt(20, 2))

	first := l.Frames.All()
	second := l.Frames.All()
	assert.Equal(t, first, second, "independent traversals agree")

	l.Frames.Add(frameAt(5, 3))
	assert.Len(t, first, 2)
	assert.Equal(t, 3, l.Frames.Len())
	assert.Equal(t, uint16(3), l.Frames.At(0).RPM)
}

func TestCollection_OwnerLifecycle(t *testing.T) {
	l := emptyFlashPro(t)
	a, b, c := frameAt(10, 1), frameAt(10, 2), frameAt(30, 3)

	assert.Nil(t, a.Owner())
	l.Frames.Add(a)
	l.Frames.Add(b)
	l.Frames.Add(c)
	assert.Same(t, l, a.Owner())

	assert.True(t, l.Frames.Contains(b))
	assert.True(t, l.Frames.Remove(b))
	assert.Nil(t, b.Owner())
	assert.False(t, l.Frames.Contains(b))
	assert.False(t, l.Frames.Remove(b), "second removal is a no-op")
	assert.Equal(t, []*FlashProFrame{a, c}, l.Frames.All())

	l.Frames.Clear()
	assert.Zero(t, l.Frames.Len())
	assert.Nil(t, a.Owner())
	assert.Nil(t, c.Owner())
}

func TestCollection_RemoveByIdentity(t *testing.T) {
	l := emptyFlashPro(t)
	a, b := frameAt(10, 1), frameAt(10, 1)
	l.Frames.Add(a)

	assert.False(t, l.Frames.Contains(b), "equal values are distinct records")
	assert.False(t, l.Frames.Remove(b))
	assert.Same(t, l, a.Owner())
}

func TestCollection_AddNilPanics(t *testing.T) {
	l := emptyFlashPro(t)
	assert.Panics(t, func() { l.Frames.Add(nil) })
	assert.False(t, l.Frames.Contains(nil))
}

func TestCollection_SaveRenumbers(t *testing.T) {
	l := emptyFlashPro(t)
	for i, ms := range []uint32{40, 10, 30, 20} {
		f := frameAt(ms, uint16(i))
		f.FrameNumber = uint32(100 - i)
		l.Frames.Add(f)
	}

	var first, second bytes.Buffer
	n, err := l.Frames.save(&first, codec.FlashProFrameSize)
	require.NoError(t, err)
	assert.Equal(t, int64(4*codec.FlashProFrameSize), n)
	_, err = l.Frames.save(&second, codec.FlashProFrameSize)
	require.NoError(t, err)
	assert.Equal(t, first.Bytes(), second.Bytes())

	raw := first.Bytes()
	for i := 0; i < 4; i++ {
		f, err := codec.DecodeFlashProFrame(raw[i*codec.FlashProFrameSize:])
		require.NoError(t, err)
		assert.Equal(t, uint32(i), f.FrameNumber)
		assert.Equal(t, uint32((i+1)*10), f.Offset)
	}
}

func TestCollection_CommentOrder(t *testing.T) {
	l := loadKPro(t, nil, nil)
	l.Comments.Add(NewComment(42.0, "end"))
	l.Comments.Add(NewComment(1.5, "start"))
	l.Comments.Add(NewComment(10.25, "mid"))

	var texts []string
	for _, c := range l.Comments.All() {
		texts = append(texts, c.Text)
		assert.Same(t, l, c.Owner())
	}
	assert.Equal(t, []string{"start", "mid", "end"}, texts)
	assert.Equal(t, codec.SecondsToDuration(42), l.Comments.Duration())
}
