package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"redub/internal/ipc"
	"redub/internal/textview"
	"redub/internal/transcript"
)

func newTranscriptCommand(ctx *commandContext) *cobra.Command {
	var top, height float64

	cmd := &cobra.Command{
		Use:   "transcript",
		Short: "Show the transcript through the windowed token view",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				tr := status.SessionState.Transcript
				if tr == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "No transcript; import media first")
					return nil
				}

				win := textview.New(tr.TokenCount(), cfg.Editor.ChunkSize, cfg.Editor.RowHeightEstimate)
				vp := textview.Viewport{Top: top, Height: height, Margin: cfg.Editor.ViewportMargin}
				if vp.Height <= 0 {
					vp.Height = win.Extent()
				}
				win.Update(vp)

				stdout := cmd.OutOrStdout()
				renderTranscriptWindow(stdout, tr, win, selectedWords(status.SessionState), shouldColorize(stdout))
				return nil
			})
		},
	}

	cmd.Flags().Float64Var(&top, "top", 0, "Viewport top offset in row units")
	cmd.Flags().Float64Var(&height, "height", 0, "Viewport height in row units; 0 shows every chunk")
	return cmd
}

// selectedWords maps the current time selection onto token indexes.
func selectedWords(state ipc.SessionState) map[int]bool {
	start, end, ok := state.Selection.Bounds()
	if !ok || state.Transcript == nil {
		return nil
	}
	marked := make(map[int]bool)
	for _, i := range state.Transcript.WordsInRange(start, end) {
		marked[i] = true
	}
	return marked
}

// renderTranscriptWindow prints only the chunks the windower marks live;
// everything else collapses to a placeholder line, mirroring the lazy
// rendering an interactive view would do.
func renderTranscriptWindow(w io.Writer, tr *transcript.Transcript, win *textview.Windower, selected map[int]bool, colorize bool) {
	fmt.Fprintf(w, "%d tokens in %d chunks, %d live\n", tr.TokenCount(), win.ChunkCount(), win.VisibleCount())
	for c := 0; c < win.ChunkCount(); c++ {
		lo, hi := win.TokenRange(c)
		if !win.Visible(c) {
			fmt.Fprintf(w, "%s[%4d-%4d] (%d tokens collapsed)\n", statusIndent, lo, hi-1, hi-lo)
			continue
		}
		var line strings.Builder
		for i := lo; i < hi; i++ {
			if i > lo {
				line.WriteByte(' ')
			}
			text := tr.Words[i].Text
			if selected[i] {
				if colorize {
					text = ansiYellow + text + ansiReset
				} else {
					text = "[" + text + "]"
				}
			}
			line.WriteString(text)
		}
		fmt.Fprintf(w, "%s[%4d-%4d] %s\n", statusIndent, lo, hi-1, line.String())
	}
}
