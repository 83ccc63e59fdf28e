/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/dsnet/compress/bzip2"
	"github.com/spf13/cobra"

	"github.com/ssargent/ecudatalog/pkg/datalog"
	"github.com/ssargent/ecudatalog/pkg/di"
	"github.com/ssargent/ecudatalog/pkg/opdl"
)

var rawStream bool

var compressCmd = &cobra.Command{
	Use:   "compress <in> <out>",
	Short: "Write a FlashPro datalog as an OPDL container",
	Long: `Write a FlashPro datalog as an OPDL container.

With --raw the input is taken to be a standard bzip2 stream, which is
rewrapped without recompression.

Examples:
  ecudl compress drive.fpdl drive.opdl
  ecudl compress --raw drive.bz2 drive.opdl`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			n   int64
			err error
		)
		if rawStream {
			n, err = wrapStream(container, args[0], args[1])
		} else {
			n, err = convertDatalog(container, args[0], args[1], true)
		}
		if err != nil {
			return err
		}
		cmd.Printf("Wrote %s (%s)\n", args[1], formatBytes(n))
		return nil
	},
}

var decompressCmd = &cobra.Command{
	Use:   "decompress <in> <out>",
	Short: "Write a datalog without OPDL compression",
	Long: `Write a datalog without OPDL compression.

With --raw the OPDL container is unwrapped into a standard bzip2 stream
instead of being decompressed.

Examples:
  ecudl decompress drive.opdl drive.fpdl
  ecudl decompress --raw drive.opdl drive.bz2`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			n   int64
			err error
		)
		if rawStream {
			n, err = unwrapStream(container, args[0], args[1])
		} else {
			n, err = convertDatalog(container, args[0], args[1], false)
		}
		if err != nil {
			return err
		}
		cmd.Printf("Wrote %s (%s)\n", args[1], formatBytes(n))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compressCmd, decompressCmd)

	compressCmd.Flags().BoolVar(&rawStream, "raw", false, "input is a bzip2 stream")
	decompressCmd.Flags().BoolVar(&rawStream, "raw", false, "output a bzip2 stream")
}

// convertDatalog loads the datalog at in and saves it to out.
func convertDatalog(c *di.Container, in, out string, compressed bool) (int64, error) {
	doc, err := datalog.Open(in, c.DatalogOptions()...)
	if err != nil {
		return 0, err
	}
	return writeFile(out, func(w io.WriteSeeker) (int64, error) {
		return doc.Save(w, compressed)
	})
}

// wrapStream rewraps the bzip2 stream at in as an OPDL container. The stream
// is decompressed once first to learn the payload size.
func wrapStream(c *di.Container, in, out string) (int64, error) {
	src, err := os.Open(in)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	size, err := streamSize(src)
	if err != nil {
		return 0, fmt.Errorf("failed to read bzip2 stream %s: %w", in, err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	return writeFile(out, func(w io.WriteSeeker) (int64, error) {
		ow := opdl.NewWriter(w, c.TranscoderOptions()...)
		if err := ow.SetPayloadSize(size); err != nil {
			return 0, err
		}
		if _, err := io.Copy(ow, src); err != nil {
			return ow.Written(), err
		}
		err := ow.Close()
		return ow.Written(), err
	})
}

func streamSize(r io.Reader) (int64, error) {
	bz, err := bzip2.NewReader(r, nil)
	if err != nil {
		return 0, err
	}
	defer bz.Close()
	return io.Copy(io.Discard, bz)
}

// unwrapStream writes the bzip2 stream held in the OPDL container at in.
func unwrapStream(c *di.Container, in, out string) (int64, error) {
	src, err := os.Open(in)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	r := opdl.NewReader(src, c.TranscoderOptions()...)
	return writeFile(out, func(w io.WriteSeeker) (int64, error) {
		return io.Copy(w, r)
	})
}

// writeFile creates path and fills it with write. The file is removed if
// write fails.
func writeFile(path string, write func(io.WriteSeeker) (int64, error)) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := write(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return n, err
	}
	return n, nil
}
