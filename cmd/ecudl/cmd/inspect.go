/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ssargent/ecudatalog/pkg/datalog"
	"github.com/ssargent/ecudatalog/pkg/diag"
)

// docInfo is the summary printed by the info command
type docInfo struct {
	Path       string   `json:"path"`
	Family     string   `json:"family"`
	Version    string   `json:"version"`
	Serial     uint32   `json:"serial"`
	Frames     int      `json:"frames"`
	Comments   int      `json:"comments"`
	Duration   float64  `json:"duration_seconds"`
	Compressed bool     `json:"compressed"`
	Stoich     float64  `json:"stoich"`
	PlainSize  int64    `json:"plain_size"`
	Faults     []string `json:"faults,omitempty"`
}

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Show a datalog summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := datalog.Open(args[0], container.DatalogOptions()...)
		if err != nil {
			return err
		}
		return printInfo(cmd.OutOrStdout(), args[0], doc)
	},
}

var (
	framesFrom  int
	framesLimit int
)

var framesCmd = &cobra.Command{
	Use:   "frames <file>",
	Short: "Print decoded frames",
	Long: `Print decoded frames with derived AFR and active fault codes.

Examples:
  ecudl frames drive.fpdl --limit 20
  ecudl frames drive.kal --from 500 --limit 0 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := datalog.Open(args[0], container.DatalogOptions()...)
		if err != nil {
			return err
		}
		return printFrames(cmd.OutOrStdout(), doc.Samples(framesFrom, framesLimit))
	},
}

var faultsCmd = &cobra.Command{
	Use:   "faults <file>",
	Short: "List fault codes set in any frame",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := datalog.Open(args[0], container.DatalogOptions()...)
		if err != nil {
			return err
		}
		return printFaults(cmd.OutOrStdout(), doc.ActiveFaults())
	},
}

var commentsCmd = &cobra.Command{
	Use:   "comments <file>",
	Short: "List the comments of a KPro datalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := datalog.Open(args[0], container.DatalogOptions()...)
		if err != nil {
			return err
		}
		kpro, ok := doc.(*datalog.KProLog)
		if !ok {
			return fmt.Errorf("%s is a %s datalog; only kpro datalogs carry comments", args[0], doc.Family())
		}
		return printComments(cmd.OutOrStdout(), kpro.Comments.All())
	},
}

func init() {
	rootCmd.AddCommand(infoCmd, framesCmd, faultsCmd, commentsCmd)

	framesCmd.Flags().IntVar(&framesFrom, "from", 0, "index of the first frame")
	framesCmd.Flags().IntVar(&framesLimit, "limit", 50, "maximum frames to print (0 for all)")
}

func newDocInfo(path string, doc datalog.Document) docInfo {
	info := docInfo{
		Path:       path,
		Family:     doc.Family().String(),
		Version:    doc.Version().String(),
		Serial:     doc.Serial(),
		Frames:     doc.FrameCount(),
		Comments:   doc.CommentCount(),
		Duration:   doc.Duration().Seconds(),
		Compressed: doc.Compressed(),
		Stoich:     doc.StoichRatio(),
		PlainSize:  doc.Size(),
	}
	for _, f := range doc.ActiveFaults() {
		info.Faults = append(info.Faults, f.DTC)
	}
	return info
}

func printInfo(out io.Writer, path string, doc datalog.Document) error {
	info := newDocInfo(path, doc)
	if jsonOutput() {
		return writeJSON(out, info)
	}

	w := newTable(out)
	defer w.Flush()

	fmt.Fprintf(w, "File:\t%s\n", info.Path)
	fmt.Fprintf(w, "Family:\t%s\n", info.Family)
	fmt.Fprintf(w, "Version:\t%s\n", info.Version)
	fmt.Fprintf(w, "Serial:\t%d\n", info.Serial)
	fmt.Fprintf(w, "Frames:\t%d\n", info.Frames)
	if info.Comments > 0 {
		fmt.Fprintf(w, "Comments:\t%d\n", info.Comments)
	}
	fmt.Fprintf(w, "Duration:\t%s\n", doc.Duration())
	fmt.Fprintf(w, "Compressed:\t%t\n", info.Compressed)
	fmt.Fprintf(w, "Stoich:\t%.2f\n", info.Stoich)
	fmt.Fprintf(w, "Size:\t%s\n", formatBytes(info.PlainSize))
	fmt.Fprintf(w, "Faults:\t%s\n", formatStringSlice(info.Faults))
	return nil
}

func printFrames(out io.Writer, samples []datalog.Sample) error {
	if jsonOutput() {
		return writeJSON(out, samples)
	}
	if len(samples) == 0 {
		fmt.Fprintln(out, "No frames found")
		return nil
	}

	w := newTable(out)
	defer w.Flush()

	fmt.Fprintln(w, "#\tTIME(ms)\tRPM\tMAP(kPa)\tTPS\tECT\tIAT\tAFR\tVTEC\tCL\tFAULTS")
	for _, s := range samples {
		ch := s.Channels
		fmt.Fprintf(w, "%d\t%.0f\t%d\t%.1f\t%d\t%d\t%d\t%.2f\t%t\t%t\t%s\n",
			s.Index, s.OffsetMS, ch.RPM, float64(ch.MAP)/10, ch.TPS, ch.ECT, ch.IAT, s.AFR,
			s.Switches.VTEC, s.Switches.ClosedLoop, formatStringSlice(s.Faults))
	}
	return nil
}

func printFaults(out io.Writer, faults []diag.FaultCode) error {
	if jsonOutput() {
		return writeJSON(out, faults)
	}
	if len(faults) == 0 {
		fmt.Fprintln(out, "No fault codes set")
		return nil
	}

	w := newTable(out)
	defer w.Flush()

	fmt.Fprintln(w, "FLAG\tDTC\tCEL\tDESCRIPTION")
	for _, f := range faults {
		cel := string(f.CEL)
		if cel == "" {
			cel = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", f.Flag, f.DTC, cel, f.Description)
	}
	return nil
}

type commentView struct {
	Offset float64 `json:"offset_seconds"`
	Text   string  `json:"text"`
}

func printComments(out io.Writer, comments []*datalog.Comment) error {
	views := make([]commentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, commentView{Offset: c.Time().Seconds(), Text: c.Text})
	}
	if jsonOutput() {
		return writeJSON(out, views)
	}
	if len(views) == 0 {
		fmt.Fprintln(out, "No comments found")
		return nil
	}

	w := newTable(out)
	defer w.Flush()

	fmt.Fprintln(w, "TIME(s)\tTEXT")
	for _, v := range views {
		fmt.Fprintf(w, "%.3f\t%s\n", v.Offset, v.Text)
	}
	return nil
}
