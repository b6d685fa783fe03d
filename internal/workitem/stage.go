package workitem

import (
	"fmt"
	"strconv"
)

// Stage is a lifecycle position. Numeric stages are ordered; StageDenied sits
// outside the order and marks an item for rework.
type Stage uint8

const (
	StageEmpty Stage = iota
	StageScripted
	StageNarrated
	StageTranscribed
	StageRendered
	StageThumbnailed
	StageApproved
	StagePostedOnce
	StagePostedAll
	StageTranslated
	StageDenied
)

// Code is the single character used in folder names: 0-9 or X.
func (s Stage) Code() string {
	if s == StageDenied {
		return "X"
	}
	if s > StageTranslated {
		return "?"
	}
	return strconv.Itoa(int(s))
}

func (s Stage) String() string {
	return "State" + s.Code()
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	return s <= StageDenied
}

// ParseStage accepts a stage code ("4", "X") or its State-prefixed form.
func ParseStage(value string) (Stage, error) {
	code := value
	if len(code) > len("State") && code[:len("State")] == "State" {
		code = code[len("State"):]
	}
	switch code {
	case "X", "x":
		return StageDenied, nil
	}
	n, err := strconv.Atoi(code)
	if err != nil || n < 0 || n > int(StageTranslated) {
		return 0, fmt.Errorf("unknown stage %q", value)
	}
	return Stage(n), nil
}

// StageSet is a set of stages used for selection.
type StageSet map[Stage]struct{}

// Stages builds a StageSet.
func Stages(stages ...Stage) StageSet {
	set := make(StageSet, len(stages))
	for _, s := range stages {
		set[s] = struct{}{}
	}
	return set
}

// Has reports membership. An empty or nil set matches nothing.
func (s StageSet) Has(stage Stage) bool {
	_, ok := s[stage]
	return ok
}
