/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssargent/ecudatalog/pkg/datalog"
	"github.com/ssargent/ecudatalog/pkg/di"
	"github.com/ssargent/ecudatalog/pkg/storage"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Store datalogs in the archive",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := container.OpenArchive()
		if err != nil {
			return err
		}
		defer archive.Close()

		summaries, err := ingestFiles(container, archive, args)
		for _, s := range summaries {
			cmd.Printf("%s\t%s\n", s.ID, s.Name)
		}
		return err
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived datalogs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := container.OpenArchive()
		if err != nil {
			return err
		}
		defer archive.Close()

		summaries, err := archive.List()
		if err != nil {
			return err
		}
		return printSummaries(cmd.OutOrStdout(), summaries)
	},
}

var exportPlain bool

var exportCmd = &cobra.Command{
	Use:   "export <id> <out>",
	Short: "Write an archived datalog to a file",
	Long: `Write an archived datalog to a file.

FlashPro datalogs are archived as OPDL containers and exported as such
unless --plain is given.

Examples:
  ecudl export 2Ga1ZXdMNpXMsOSQFbJYyNwGDQj drive.opdl
  ecudl export --plain 2Ga1ZXdMNpXMsOSQFbJYyNwGDQj drive.fpdl`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := container.OpenArchive()
		if err != nil {
			return err
		}
		defer archive.Close()

		n, err := exportDatalog(archive, args[0], args[1], exportPlain)
		if err != nil {
			return err
		}
		cmd.Printf("Wrote %s (%s)\n", args[1], formatBytes(n))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd, listCmd, exportCmd)

	exportCmd.Flags().BoolVar(&exportPlain, "plain", false, "decompress FlashPro datalogs")
}

// ingestFiles stores every file, stopping at the first failure. Summaries of
// the files stored before the failure are returned with the error.
func ingestFiles(c *di.Container, archive *storage.Archive, paths []string) ([]storage.Summary, error) {
	out := make([]storage.Summary, 0, len(paths))
	for _, path := range paths {
		doc, err := datalog.Open(path, c.DatalogOptions()...)
		if err != nil {
			return out, err
		}
		s, err := archive.Ingest(doc, filepath.Base(path))
		if err != nil {
			return out, fmt.Errorf("failed to ingest %s: %w", path, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func exportDatalog(archive *storage.Archive, rawID, out string, plain bool) (int64, error) {
	id, err := storage.ParseID(rawID)
	if err != nil {
		return 0, err
	}

	if plain {
		doc, err := archive.Load(id)
		if err != nil {
			return 0, err
		}
		return writeFile(out, func(w io.WriteSeeker) (int64, error) {
			return doc.Save(w, false)
		})
	}

	raw, err := archive.Get(id)
	if err != nil {
		return 0, err
	}
	return writeFile(out, func(w io.WriteSeeker) (int64, error) {
		return io.Copy(w, bytes.NewReader(raw))
	})
}

func printSummaries(out io.Writer, summaries []storage.Summary) error {
	if jsonOutput() {
		return writeJSON(out, summaries)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(out, "No datalogs found")
		return nil
	}

	w := newTable(out)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tNAME\tFAMILY\tSERIAL\tFRAMES\tDURATION\tSTORED\tFAULTS")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.1fs\t%s\t%s\n",
			s.ID, s.Name, s.Family, s.Serial, s.Frames, s.Duration,
			formatBytes(s.StoredSize), formatStringSlice(s.Faults))
	}
	return nil
}
