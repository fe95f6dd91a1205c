package main

import (
	"fmt"
	"io"
	"strings"

	"redub/internal/ipc"
	"redub/internal/language"
)

// renderSessionState prints the editing session summary used by status and
// by every command that returns the session aggregate.
func renderSessionState(w io.Writer, state ipc.SessionState, colorize bool) {
	fmt.Fprintln(w, renderStatusLine("Step", statusInfo, string(state.Step), colorize))

	busyKind := statusOK
	busyDetail := "idle"
	if state.Busy {
		busyKind = statusWarn
		busyDetail = state.Status
		if strings.TrimSpace(busyDetail) == "" {
			busyDetail = "working"
		}
	}
	fmt.Fprintln(w, renderStatusLine("Busy", busyKind, busyDetail, colorize))

	if state.Error != "" {
		fmt.Fprintln(w, renderStatusLine("Error", statusError, state.Error, colorize))
	}

	if state.JobID == "" {
		fmt.Fprintln(w, renderStatusLine("Job", statusInfo, "no media imported", colorize))
		return
	}
	fmt.Fprintln(w, renderStatusLine("Job", statusOK, state.JobID, colorize))
	fmt.Fprintln(w, renderStatusLine("Audio", statusInfo, state.AudioURL, colorize))
	fmt.Fprintln(w, renderStatusLine("Alignment", statusInfo, yesNo(state.WhisperXEnabled), colorize))

	if state.Transcript != nil {
		detail := fmt.Sprintf("%d words, %.1fs, %s", state.Transcript.TokenCount(), state.Transcript.Duration, language.DisplayName(state.Transcript.Language))
		fmt.Fprintln(w, renderStatusLine("Transcript", statusOK, detail, colorize))
	}

	if start, end, ok := state.Selection.Bounds(); ok {
		fmt.Fprintln(w, renderStatusLine("Selection", statusOK, formatRange(start, end), colorize))
	} else {
		fmt.Fprintln(w, renderStatusLine("Selection", statusInfo, "none", colorize))
	}

	voice := string(state.VoiceMode)
	switch {
	case state.VoiceID != "":
		voice = fmt.Sprintf("%s (%s)", voice, state.VoiceID)
	case state.FavoriteVoiceID != "":
		voice = fmt.Sprintf("%s (%s)", voice, state.FavoriteVoiceID)
	}
	fmt.Fprintln(w, renderStatusLine("Voice", statusInfo, voice, colorize))

	if strings.TrimSpace(state.ReplaceText) != "" {
		fmt.Fprintln(w, renderStatusLine("Replace text", statusInfo, truncateText(state.ReplaceText, 60), colorize))
	}
	if state.PreviewURL != "" {
		fmt.Fprintln(w, renderStatusLine("Preview", statusOK, state.PreviewURL, colorize))
	}
	if state.FinalURL != "" {
		fmt.Fprintln(w, renderStatusLine("Final", statusOK, state.FinalURL, colorize))
	}
}

func formatRange(start, end float64) string {
	return fmt.Sprintf("%.2fs - %.2fs (%.2fs)", start, end, end-start)
}

func truncateText(value string, limit int) string {
	trimmed := strings.TrimSpace(value)
	runes := []rune(trimmed)
	if len(runes) <= limit {
		return trimmed
	}
	return string(runes[:limit]) + "..."
}
