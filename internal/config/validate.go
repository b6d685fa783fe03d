package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Validate ensures the configuration is usable. Collaborator credentials are
// not required here: commands that need them fail when the collaborator is
// built, so read-only commands work without secrets.
func (c *Config) Validate() error {
	if err := c.validateProduction(); err != nil {
		return err
	}
	if err := c.validatePosting(); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	if err := c.validateDaemon(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateProduction() error {
	if c.Production.MinSentences < 1 {
		return errors.New("production.min_sentences must be positive")
	}
	if c.Production.CooldownSeconds < 0 {
		return errors.New("production.cooldown_seconds must not be negative")
	}
	if c.Production.SettleMillis < 0 {
		return errors.New("production.settle_millis must not be negative")
	}
	return nil
}

func (c *Config) validatePosting() error {
	p := c.Posting
	if p.Rounds < 1 {
		return errors.New("posting.rounds must be positive")
	}
	if p.ChannelPauseMinSeconds < 0 || p.ChannelPauseMaxSeconds < p.ChannelPauseMinSeconds {
		return fmt.Errorf("posting.channel_pause range invalid: min=%d max=%d", p.ChannelPauseMinSeconds, p.ChannelPauseMaxSeconds)
	}
	if p.RoundPauseMinSeconds < 0 || p.RoundPauseMaxSeconds < p.RoundPauseMinSeconds {
		return fmt.Errorf("posting.round_pause range invalid: min=%d max=%d", p.RoundPauseMinSeconds, p.RoundPauseMaxSeconds)
	}
	if _, err := time.LoadLocation(p.QuotaTimezone); err != nil {
		return fmt.Errorf("posting.quota_timezone: %w", err)
	}
	return nil
}

func (c *Config) validateSchedule() error {
	if c.Schedule.LookaheadDays < 1 {
		return errors.New("schedule.lookahead_days must be positive")
	}
	if c.Schedule.SlotHourUTC < 0 || c.Schedule.SlotHourUTC > 23 {
		return errors.New("schedule.slot_hour_utc must be between 0 and 23")
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.MaxAttempts < 1 {
		return errors.New("retry.max_attempts must be positive")
	}
	if c.Retry.BaseDelayMillis < 0 || c.Retry.MaxDelaySeconds < 0 {
		return errors.New("retry delays must not be negative")
	}
	return nil
}

func (c *Config) validateDaemon() error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, spec := range map[string]string{
		"daemon.produce_cron":      c.Daemon.ProduceCron,
		"daemon.upload_cron":       c.Daemon.UploadCron,
		"daemon.housekeeping_cron": c.Daemon.HousekeepingCron,
	} {
		if spec == "" {
			continue
		}
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.Daemon.JournalRetentionDays < 0 || c.Daemon.QuotaMarkerDays < 0 {
		return fmt.Errorf("daemon retention days must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
