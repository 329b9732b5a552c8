package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	hashengine "github.com/mattkeenan/libhash/pkg"
)

const (
	summaryAuto   = "auto"
	summaryAlways = "always"
	summaryNever  = "never"
)

// showSummary decides whether the table is printed; auto prints only to a terminal
func showSummary(mode string, w io.Writer) bool {
	switch mode {
	case summaryAlways:
		return true
	case summaryNever:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func renderSummary(infos []hashengine.OperationInfo) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Footer = text.FormatDefault
	tw.AppendHeader(table.Row{"ID", "Directory", "State", "Hashed", "Failed", "Elapsed", "Last Error"})

	var hashed, failed uint64
	for _, info := range infos {
		tw.AppendRow(table.Row{
			strconv.FormatUint(info.ID, 10),
			info.Root,
			info.State.String(),
			info.FilesHashed,
			info.FilesFailed,
			formatElapsed(info.Elapsed()),
			info.LastError,
		})
		hashed += info.FilesHashed
		failed += info.FilesFailed
	}
	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d operations", len(infos)), "", hashed, failed, "", ""})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 5, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, WidthMax: 60},
	})

	return tw.Render()
}

func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(10 * time.Millisecond).String()
}
