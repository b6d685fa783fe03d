package stage

import "influencer/internal/workitem"

// Options adjusts inference for a channel.
type Options struct {
	// Translation enables stage 9 for channels that publish translations.
	Translation bool
}

// chain lists the markers that unlock stages 1 through 6, in order.
var chain = []struct {
	marker Marker
	stage  workitem.Stage
}{
	{Script, workitem.StageScripted},
	{Narration, workitem.StageNarrated},
	{Transcript, workitem.StageTranscribed},
	{Video, workitem.StageRendered},
	{Thumbnail, workitem.StageThumbnailed},
	{Approval, workitem.StageApproved},
}

// Infer maps a marker set to the highest stage whose prerequisite chain is
// fully present.
func Infer(set Set, opts Options) workitem.Stage {
	if set.Has(Denial) {
		return workitem.StageDenied
	}
	current := workitem.StageEmpty
	for _, link := range chain {
		if !set.Has(link.marker) {
			return current
		}
		current = link.stage
	}
	switch n := set.platforms(); {
	case n == 0:
		return current
	case n == 1:
		return workitem.StagePostedOnce
	}
	if opts.Translation && set.Has(Translation) {
		return workitem.StageTranslated
	}
	return workitem.StagePostedAll
}

// Requires returns the markers that must all be present for stage s, not
// counting platform markers for stages 7 and 8.
func Requires(s workitem.Stage) Set {
	var set Set
	for _, link := range chain {
		set = set.With(link.marker)
		if link.stage == s {
			return set
		}
	}
	if s == workitem.StageTranslated {
		return set.With(Translation)
	}
	if s == workitem.StageDenied {
		return Of(Denial)
	}
	return set
}
