package config

import (
	"fmt"
	"time"

	"github.com/grovetools/fleet/errors"
	"github.com/moby/patternmatcher"
)

var validSortModes = map[string]bool{
	"activity": true,
	"tokens":   true,
	"project":  true,
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.TokensMax < 0 {
		return errors.New(errors.ErrCodeConfigValidation, "tokens_max cannot be negative")
	}
	if c.DefaultBudget < 0 {
		return errors.New(errors.ErrCodeConfigValidation, "default_budget cannot be negative")
	}

	if c.TUI != nil {
		if err := validateDuration("tui.refresh_interval", c.TUI.RefreshInterval); err != nil {
			return err
		}
		if c.TUI.DefaultSort != "" && !validSortModes[c.TUI.DefaultSort] {
			return errors.New(errors.ErrCodeConfigValidation,
				fmt.Sprintf("tui.default_sort must be one of activity, tokens, project; got %q", c.TUI.DefaultSort))
		}
		if c.TUI.Icons != "" && c.TUI.Icons != "nerd" && c.TUI.Icons != "ascii" {
			return errors.New(errors.ErrCodeConfigValidation,
				fmt.Sprintf("tui.icons must be nerd or ascii; got %q", c.TUI.Icons))
		}
	}

	if c.Poll != nil {
		if err := validateDuration("poll.interval", c.Poll.Interval); err != nil {
			return err
		}
		if err := validateDuration("poll.branch_timeout", c.Poll.BranchTimeout); err != nil {
			return err
		}
		if c.Poll.Workers < 0 {
			return errors.New(errors.ErrCodeConfigValidation, "poll.workers cannot be negative")
		}
	}

	if len(c.Exclude) > 0 {
		if _, err := patternmatcher.New(c.Exclude); err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid exclude pattern")
		}
	}

	return nil
}

// ExcludeMatcher compiles the exclude patterns for project filtering.
// Returns nil when no patterns are configured.
func (c *Config) ExcludeMatcher() (*patternmatcher.PatternMatcher, error) {
	if len(c.Exclude) == 0 {
		return nil, nil
	}
	pm, err := patternmatcher.New(c.Exclude)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid exclude pattern")
	}
	return pm, nil
}

func validateDuration(field, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigValidation,
			fmt.Sprintf("%s is not a valid duration", field)).
			WithDetail("value", value)
	}
	if d <= 0 {
		return errors.New(errors.ErrCodeConfigValidation,
			fmt.Sprintf("%s must be positive", field)).
			WithDetail("value", value)
	}
	return nil
}
