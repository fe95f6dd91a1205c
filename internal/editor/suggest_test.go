package editor_test

import (
	"testing"

	"redub/internal/editor"
	"redub/internal/transcript"
)

func TestSuggestNext(t *testing.T) {
	tr := &transcript.Transcript{Language: "en", Duration: 60}

	cases := []struct {
		name     string
		mutate   func(*editor.State)
		wantStep editor.Step
		wantOK   bool
	}{
		{
			name:   "fresh session suggests nothing",
			mutate: func(*editor.State) {},
		},
		{
			name: "transcript on import suggests align",
			mutate: func(s *editor.State) {
				s.Transcript = tr
			},
			wantStep: editor.StepAlign,
			wantOK:   true,
		},
		{
			name: "transcript on align suggests replace",
			mutate: func(s *editor.State) {
				s.Step = editor.StepAlign
				s.Transcript = tr
			},
			wantStep: editor.StepReplace,
			wantOK:   true,
		},
		{
			name: "preview on replace suggests export",
			mutate: func(s *editor.State) {
				s.Step = editor.StepReplace
				s.Transcript = tr
				s.PreviewURL = "https://media.local/preview.wav"
			},
			wantStep: editor.StepExport,
			wantOK:   true,
		},
		{
			name: "busy suppresses suggestions",
			mutate: func(s *editor.State) {
				s.Step = editor.StepAlign
				s.Transcript = tr
				s.Busy = true
			},
		},
		{
			name: "export is terminal",
			mutate: func(s *editor.State) {
				s.Step = editor.StepExport
				s.Transcript = tr
				s.PreviewURL = "https://media.local/preview.wav"
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state := editor.NewState()
			tc.mutate(&state)
			step, ok := editor.SuggestNext(state)
			if ok != tc.wantOK || step != tc.wantStep {
				t.Fatalf("SuggestNext = (%q, %v), want (%q, %v)", step, ok, tc.wantStep, tc.wantOK)
			}
		})
	}
}
