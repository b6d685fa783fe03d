package selector

import (
	"errors"

	"github.com/charmbracelet/huh"
)

// HuhChooser renders the choice as a terminal select list.
type HuhChooser struct{}

// Choose implements Chooser.
func (HuhChooser) Choose(title string, options []string) (int, error) {
	opts := make([]huh.Option[int], len(options))
	for i, label := range options {
		opts[i] = huh.NewOption(label, i)
	}
	choice := -1
	err := huh.NewSelect[int]().
		Title(title).
		Options(opts...).
		Value(&choice).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return -1, ErrAborted
		}
		return -1, err
	}
	return choice, nil
}
