package editing

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"

	"influencer/internal/selector"
	"influencer/internal/workitem"
)

// HuhPrompter asks through terminal forms.
type HuhPrompter struct{}

// Next implements Prompter.
func (HuhPrompter) Next(item workitem.Item, actions []Action) (Action, error) {
	opts := make([]huh.Option[Action], len(actions))
	for i, a := range actions {
		opts[i] = huh.NewOption(a.Label(), a)
	}
	var choice Action
	err := huh.NewSelect[Action]().
		Title(selector.FormatChoice(item)).
		Options(opts...).
		Value(&choice).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return ActionExit, ErrAborted
	}
	return choice, err
}

// Part implements Prompter.
func (HuhPrompter) Part(item workitem.Item, parts int) (int, error) {
	var raw string
	err := huh.NewInput().
		Title(fmt.Sprintf("Which sentence should be re-recorded? (1-%d)", parts)).
		Value(&raw).
		Validate(func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > parts {
				return fmt.Errorf("enter a number between 1 and %d", parts)
			}
			return nil
		}).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return 0, ErrAborted
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(raw)
}
