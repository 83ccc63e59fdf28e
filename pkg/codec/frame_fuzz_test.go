//go:build fuzz
// +build fuzz

package codec

import (
	"bytes"
	"testing"
)

// FuzzDecodeFlashProFrame checks that any record at least the fixed size
// decodes and re-encodes to the same bytes.
func FuzzDecodeFlashProFrame(f *testing.F) {
	f.Add(make([]byte, FlashProFrameSize))
	f.Add(bytes.Repeat([]byte{0xFF}, FlashProFrameSize+3))

	f.Fuzz(func(t *testing.T, data []byte) {
		frame, err := DecodeFlashProFrame(data)
		if len(data) < FlashProFrameSize {
			if err == nil {
				t.Fatalf("decoded a %d byte record", len(data))
			}
			return
		}
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}

		encoded, err := frame.Encode(len(data))
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		if !bytes.Equal(encoded, data) {
			t.Fatalf("round trip mismatch\n got %x\nwant %x", encoded, data)
		}
	})
}

// FuzzDecodeKProFrame checks KPro records decode and encode stably. A NaN
// offset need not keep its exact bits, so the first encoding is the reference.
func FuzzDecodeKProFrame(f *testing.F) {
	f.Add(make([]byte, KProFrameSize))

	f.Fuzz(func(t *testing.T, data []byte) {
		frame, err := DecodeKProFrame(data)
		if len(data) < KProFrameSize {
			if err == nil {
				t.Fatalf("decoded a %d byte record", len(data))
			}
			return
		}
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}

		encoded, err := frame.Encode(len(data))
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		again, err := DecodeKProFrame(encoded)
		if err != nil {
			t.Fatalf("decode of encoded frame failed: %v", err)
		}
		reencoded, err := again.Encode(len(data))
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		if !bytes.Equal(reencoded, encoded) {
			t.Fatalf("unstable encoding\n got %x\nwant %x", reencoded, encoded)
		}
	})
}
