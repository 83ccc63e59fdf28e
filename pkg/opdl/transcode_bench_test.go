//go:build bench
// +build bench

package opdl

import (
	"bytes"
	"io"
	"testing"
)

func BenchmarkCompressWriter(b *testing.B) {
	plain := bytes.Repeat([]byte("rpm=3200 map=64 tps=12 "), 4096)

	b.SetBytes(int64(len(plain)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cw, err := NewCompressWriter(io.Discard, DefaultBlockSize, WithPayloadSize(uint32(len(plain))))
		if err != nil {
			b.Fatal(err)
		}
		if _, err := cw.Write(plain); err != nil {
			b.Fatal(err)
		}
		if err := cw.Close(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecompressReader(b *testing.B) {
	plain := bytes.Repeat([]byte("rpm=3200 map=64 tps=12 "), 4096)

	var buf bytes.Buffer
	cw, err := NewCompressWriter(&buf, DefaultBlockSize)
	if err != nil {
		b.Fatal(err)
	}
	if _, err := cw.Write(plain); err != nil {
		b.Fatal(err)
	}
	if err := cw.Close(); err != nil {
		b.Fatal(err)
	}
	container := buf.Bytes()

	b.SetBytes(int64(len(plain)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dr, err := NewDecompressReader(bytes.NewReader(container))
		if err != nil {
			b.Fatal(err)
		}
		if _, err := io.Copy(io.Discard, dr); err != nil {
			b.Fatal(err)
		}
	}
}
