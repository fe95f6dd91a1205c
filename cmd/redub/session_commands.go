package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"redub/internal/editor"
	"redub/internal/ipc"
	"redub/internal/selection"
	"redub/internal/transcript"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "import <url-or-file>",
		Short: "Import media and transcribe it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filePath := splitSource(args[0])
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Import(source, filePath)
				if err != nil {
					return err
				}
				return printStateResult(cmd, resp, jsonOut)
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine-readable JSON")
	return cmd
}

// splitSource decides whether the argument is a local file or a URL. An
// existing path wins so relative media files work without a scheme.
func splitSource(arg string) (source, filePath string) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return "", arg
	}
	return arg, ""
}

func newAlignCommand(ctx *commandContext) *cobra.Command {
	var start, end, margin float64
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "align",
		Short: "Refine transcript timings, fully or over a region",
		RunE: func(cmd *cobra.Command, args []string) error {
			regional := cmd.Flags().Changed("start") || cmd.Flags().Changed("end")
			return ctx.withClient(func(client *ipc.Client) error {
				var resp *ipc.StateResponse
				var err error
				if regional {
					resp, err = client.AlignRegion(start, end, margin)
				} else {
					resp, err = client.AlignFull()
				}
				if err != nil {
					return err
				}
				return printStateResult(cmd, resp, jsonOut)
			})
		},
	}

	cmd.Flags().Float64Var(&start, "start", 0, "Region start in seconds")
	cmd.Flags().Float64Var(&end, "end", 0, "Region end in seconds")
	cmd.Flags().Float64Var(&margin, "margin", 0, "Context margin in seconds around the region")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newStepCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "step <import|align|replace|export>",
		Short: "Move the session to a workflow step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := editor.ParseStep(args[0]); !ok {
				return fmt.Errorf("unknown step %q; use import, align, replace, or export", args[0])
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SetStep(args[0])
				if err != nil {
					return err
				}
				return printStateResult(cmd, resp, jsonOut)
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newSelectCommand(ctx *commandContext) *cobra.Command {
	var clear bool
	var words []int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "select <start> <end>",
		Short: "Select a time range of the transcript",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			byWords := cmd.Flags().Changed("words")
			if !clear && !byWords && len(args) != 2 {
				return fmt.Errorf("provide <start> and <end> in seconds, --words, or --clear")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				var start, end *float64
				switch {
				case clear:
				case byWords:
					status, err := client.Status()
					if err != nil {
						return err
					}
					sel, err := wordRangeSelection(status.SessionState.Transcript, words)
					if err != nil {
						return err
					}
					start, end = sel.Start, sel.End
				default:
					s, err := strconv.ParseFloat(args[0], 64)
					if err != nil {
						return fmt.Errorf("invalid start %q", args[0])
					}
					e, err := strconv.ParseFloat(args[1], 64)
					if err != nil {
						return fmt.Errorf("invalid end %q", args[1])
					}
					status, statusErr := client.Status()
					if statusErr != nil {
						return statusErr
					}
					s, e = normalizeTimeRange(s, e, status.SessionState.Transcript.EffectiveDuration())
					start, end = &s, &e
				}
				resp, err := client.SetSelection(start, end)
				if err != nil {
					return err
				}
				return printStateResult(cmd, resp, jsonOut)
			})
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "Clear the current selection")
	cmd.Flags().IntSliceVar(&words, "words", nil, "Select by token index: one index, or start and end")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine-readable JSON")
	return cmd
}

// normalizeTimeRange drops the two bounds onto the timeline as handle moves,
// so out-of-range times clamp and an inverted pair swaps instead of failing.
func normalizeTimeRange(start, end, duration float64) (float64, float64) {
	sel := selection.MoveHandle(editor.Selection{}, selection.HandleStart, start, duration)
	sel = selection.MoveHandle(sel, selection.HandleEnd, end, duration)
	s, e, _ := sel.Bounds()
	return s, e
}

// wordRangeSelection turns one or two token indexes into a time selection
// spanning those tokens, via the same gesture path the drag tracker uses.
func wordRangeSelection(tr *transcript.Transcript, words []int) (editor.Selection, error) {
	if tr == nil || tr.TokenCount() == 0 {
		return editor.Selection{}, fmt.Errorf("no transcript to select from")
	}
	if len(words) == 0 || len(words) > 2 {
		return editor.Selection{}, fmt.Errorf("--words takes one or two token indexes")
	}
	tracker := selection.NewDragTracker(tr.Words)
	sel, ok := tracker.Begin(words[0])
	if !ok {
		return editor.Selection{}, fmt.Errorf("token index %d out of range (0..%d)", words[0], tr.TokenCount()-1)
	}
	if len(words) == 2 {
		if sel, ok = tracker.Extend(words[1]); !ok {
			return editor.Selection{}, fmt.Errorf("token index %d out of range (0..%d)", words[1], tr.TokenCount()-1)
		}
	}
	tracker.Release()
	return sel, nil
}

func newReplaceCommand(ctx *commandContext) *cobra.Command {
	var text string
	var voiceMode string
	var voiceID string
	var favoriteID string
	var marginSec float64
	var fadeMs int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "replace",
		Short: "Set the replacement text, voice, and timing for the selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("text") && voiceMode == "" && !cmd.Flags().Changed("margin") && !cmd.Flags().Changed("fade") {
				return fmt.Errorf("nothing to set; use --text, --voice, --margin, or --fade")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				var resp *ipc.StateResponse
				var err error

				if cmd.Flags().Changed("text") {
					if resp, err = client.SetReplaceText(text); err != nil {
						return err
					}
				}
				if voiceMode != "" || voiceID != "" || favoriteID != "" {
					req := ipc.SetVoiceRequest{Mode: voiceMode, VoiceID: voiceID, FavoriteID: favoriteID}
					if resp, err = client.SetVoice(req); err != nil {
						return err
					}
				}
				if cmd.Flags().Changed("margin") || cmd.Flags().Changed("fade") {
					var req ipc.PatchTimingRequest
					if cmd.Flags().Changed("margin") {
						req.MarginSec = &marginSec
					}
					if cmd.Flags().Changed("fade") {
						req.FadeMs = &fadeMs
					}
					if resp, err = client.PatchTiming(req); err != nil {
						return err
					}
				}
				return printStateResult(cmd, resp, jsonOut)
			})
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Replacement text to synthesize")
	cmd.Flags().StringVar(&voiceMode, "voice", "", "Voice mode: borrow, named, or favorite")
	cmd.Flags().StringVar(&voiceID, "voice-id", "", "Engine voice id for named mode")
	cmd.Flags().StringVar(&favoriteID, "favorite", "", "Saved favorite id for favorite mode")
	cmd.Flags().Float64Var(&marginSec, "margin", 0, "Splice margin in seconds")
	cmd.Flags().IntVar(&fadeMs, "fade", 0, "Crossfade length in milliseconds")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render a replacement preview for the selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ReplacePreview()
				if err != nil {
					return err
				}
				return printStateResult(cmd, resp, jsonOut)
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newApplyCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply the previewed replacement to the final output",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Apply()
				if err != nil {
					return err
				}
				return printStateResult(cmd, resp, jsonOut)
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newSuggestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest",
		Short: "Suggest the next workflow step",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Suggest()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if !resp.Available {
					fmt.Fprintln(stdout, "No suggestion; the session is mid-operation or complete")
					return nil
				}
				fmt.Fprintf(stdout, "Next step: %s\n", resp.Step)
				return nil
			})
		},
	}
}

func newVoicesCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var favorites bool

	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List selectable voices or saved favorites",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if favorites {
					resp, err := client.Favorites()
					if err != nil {
						return err
					}
					if jsonOut {
						return writeJSON(cmd, resp)
					}
					if len(resp.Favorites) == 0 {
						fmt.Fprintln(cmd.OutOrStdout(), "No favorites saved")
						return nil
					}
					rows := make([][]string, 0, len(resp.Favorites))
					for _, fav := range resp.Favorites {
						rows = append(rows, []string{fav.ID, fav.Label, fav.VoiceID})
					}
					fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Label", "Voice"}, rows, []columnAlignment{alignLeft, alignLeft, alignLeft}))
					return nil
				}

				resp, err := client.Voices()
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp)
				}
				if len(resp.Voices) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No voices available")
					return nil
				}
				rows := make([][]string, 0, len(resp.Voices))
				for _, voice := range resp.Voices {
					rows = append(rows, []string{voice.ID, voice.Label})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Label"}, rows, []columnAlignment{alignLeft, alignLeft}))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&favorites, "favorites", false, "List saved favorites instead of engine voices")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine-readable JSON")
	return cmd
}

// printStateResult renders a state-bearing response, resilient to commands
// that made no RPC call.
func printStateResult(cmd *cobra.Command, resp *ipc.StateResponse, jsonOut bool) error {
	if resp == nil {
		return nil
	}
	if jsonOut {
		return writeJSON(cmd, resp)
	}
	stdout := cmd.OutOrStdout()
	renderSessionState(stdout, resp.State, shouldColorize(stdout))
	return nil
}
