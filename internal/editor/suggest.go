package editor

// SuggestNext computes whether advancing to a later step is currently
// meaningful. It never navigates; callers surface the result as a one-click
// affordance. No suggestion is made while an operation is in flight.
func SuggestNext(state State) (Step, bool) {
	if state.Busy {
		return "", false
	}
	switch {
	case state.PreviewURL != "" && state.Step == StepReplace:
		return StepExport, true
	case state.Transcript != nil && state.Step == StepAlign:
		return StepReplace, true
	case state.Transcript != nil && state.Step == StepImport:
		return StepAlign, true
	default:
		return "", false
	}
}
