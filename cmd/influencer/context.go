package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"influencer/internal/channels"
	"influencer/internal/config"
	"influencer/internal/journal"
	"influencer/internal/lifecycle"
	"influencer/internal/logging"
	"influencer/internal/selector"
	"influencer/internal/services"
	"influencer/internal/store"
	"influencer/internal/workitem"
)

type commandContext struct {
	configFlag   *string
	channelFlags *[]string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	// overridable in tests
	interactive func() bool
	chooser     selector.Chooser
	clock       func() time.Time
}

func newCommandContext(configFlag *string, channelFlags *[]string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		channelFlags: channelFlags,
		interactive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
		chooser: selector.HuhChooser{},
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) registry() (*channels.Registry, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return channels.Load(cfg.Paths.ChannelsDir)
}

// selectChannels returns the channels named by --channel, or the ones pick
// chooses from the registry when the flag is absent.
func (c *commandContext) selectChannels(pick func(*channels.Registry) []channels.Channel) ([]channels.Channel, error) {
	reg, err := c.registry()
	if err != nil {
		return nil, err
	}
	var names []string
	if c.channelFlags != nil {
		names = *c.channelFlags
	}
	if len(names) == 0 {
		chs := pick(reg)
		if len(chs) == 0 {
			return nil, errors.New("no channels configured for this command")
		}
		return chs, nil
	}
	out := make([]channels.Channel, 0, len(names))
	for _, name := range names {
		ch, err := reg.Get(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, nil
}

// channelArg resolves the single channel a command works on: the positional
// argument if given, otherwise exactly one --channel.
func (c *commandContext) channelArg(args []string) (channels.Channel, error) {
	reg, err := c.registry()
	if err != nil {
		return nil, err
	}
	name := ""
	switch {
	case len(args) > 0:
		name = args[0]
	case c.channelFlags != nil && len(*c.channelFlags) == 1:
		name = (*c.channelFlags)[0]
	default:
		return nil, errors.New("name one channel (argument or --channel)")
	}
	return reg.Get(strings.TrimSpace(name))
}

func (c *commandContext) repository(ch channels.Channel) (store.Repository, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return store.Open(cfg, channels.OutputsDir(ch), logger), nil
}

// withLock runs fn while holding the locks of every channel in chs.
func (c *commandContext) withLock(chs []channels.Channel, fn func() error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	names := make([]string, len(chs))
	for i, ch := range chs {
		names[i] = ch.Name()
	}
	release, err := store.LockChannels(cfg, names)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// openJournal opens the event journal; the caller closes it.
func (c *commandContext) openJournal() (*journal.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return journal.Open(cfg.JournalPath())
}

// pickItem resolves --item (series-seq or bare sequence) or asks the operator
// to choose among items in stages.
func (c *commandContext) pickItem(ctx context.Context, repo store.Repository, ch channels.Channel, key string, stages workitem.StageSet) (workitem.Item, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		if !c.interactive() {
			return workitem.Item{}, errors.New("interactive selection requires a terminal; pass --item")
		}
		return selector.SelectOne(ctx, repo, stages, c.chooser)
	}
	series, seq, err := parseItemKey(key, ch.Series())
	if err != nil {
		return workitem.Item{}, err
	}
	item, err := repo.Get(ctx, series, seq)
	if err != nil {
		return workitem.Item{}, err
	}
	if !stages.Has(item.Stage) {
		return workitem.Item{}, services.Wrap(services.ErrValidation, "cli", "pick item",
			fmt.Sprintf("%s is in %s", item.Key(), item.Stage), nil)
	}
	return item, nil
}

func parseItemKey(key, defaultSeries string) (string, int, error) {
	series, seqText := defaultSeries, key
	if i := strings.LastIndex(key, "-"); i >= 0 {
		series, seqText = key[:i], key[i+1:]
	}
	seq, err := strconv.Atoi(seqText)
	if err != nil || seq < 1 || series == "" {
		return "", 0, fmt.Errorf("invalid item %q (want SERIES-SEQ or SEQ)", key)
	}
	return series, seq, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func (c *commandContext) lifecycle(ch channels.Channel, rt *runtime) (*lifecycle.Manager, error) {
	repo, err := c.repository(ch)
	if err != nil {
		return nil, err
	}
	return lifecycle.New(repo, rt.journal, ch.Name(), ch.InferenceOptions(), rt.logger), nil
}
