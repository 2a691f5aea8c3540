package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBotUsername  = "suslikmetrbot"
	DefaultProfileLabel = "Орешков"
)

// Settings are the tunable parameters read by every farm cycle. Mutation goes
// through Apply, which re-validates before the caller persists.
type Settings struct {
	AppID        int
	AppHash      string
	Recipient    string
	BotUsername  string
	ProfileLabel string
	MinDelay     float64
	MaxDelay     float64
	SettleDelay  float64
	FetchWindow  int
}

func DefaultSettings() Settings {
	return Settings{
		BotUsername:  DefaultBotUsername,
		ProfileLabel: DefaultProfileLabel,
		MinDelay:     1.0,
		MaxDelay:     3.0,
		SettleDelay:  2.0,
		FetchWindow:  5,
	}
}

func (s Settings) Validate() error {
	if s.MinDelay < 0 {
		return fmt.Errorf("min_delay must be non-negative")
	}
	if s.MaxDelay < s.MinDelay {
		return fmt.Errorf("max_delay %.2f is below min_delay %.2f", s.MaxDelay, s.MinDelay)
	}
	if s.SettleDelay < 0 {
		return fmt.Errorf("settle_delay must be non-negative")
	}
	if s.FetchWindow < 1 {
		return fmt.Errorf("fetch_window must be at least 1")
	}
	if strings.TrimSpace(s.BotUsername) == "" {
		return fmt.Errorf("bot_username is required")
	}
	if strings.TrimSpace(s.ProfileLabel) == "" {
		return fmt.Errorf("bot_profile_label is required")
	}
	return nil
}

// HasCredentials reports whether the platform app credentials are present.
func (s Settings) HasCredentials() bool {
	return s.AppID != 0 && strings.TrimSpace(s.AppHash) != ""
}

func (s Settings) MinDelayDuration() time.Duration {
	return secondsToDuration(s.MinDelay)
}

func (s Settings) MaxDelayDuration() time.Duration {
	return secondsToDuration(s.MaxDelay)
}

func (s Settings) SettleDuration() time.Duration {
	return secondsToDuration(s.SettleDelay)
}

// Apply sets a single key from its textual form and validates the result.
// The receiver is left unchanged when the new value would break an invariant.
func (s *Settings) Apply(key, value string) error {
	next := *s

	switch key {
	case "app_id":
		id, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse app_id: %w", err)
		}
		next.AppID = id
	case "app_hash":
		next.AppHash = value
	case "recipient":
		next.Recipient = strings.TrimSpace(value)
	case "bot_username":
		next.BotUsername = strings.TrimPrefix(strings.TrimSpace(value), "@")
	case "bot_profile_label":
		next.ProfileLabel = strings.TrimSpace(value)
	case "min_delay":
		f, err := parseSeconds(key, value)
		if err != nil {
			return err
		}
		next.MinDelay = f
	case "max_delay":
		f, err := parseSeconds(key, value)
		if err != nil {
			return err
		}
		next.MaxDelay = f
	case "settle_delay":
		f, err := parseSeconds(key, value)
		if err != nil {
			return err
		}
		next.SettleDelay = f
	case "fetch_window":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse fetch_window: %w", err)
		}
		next.FetchWindow = n
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSettingKey, key)
	}

	if err := next.Validate(); err != nil {
		return err
	}

	*s = next
	return nil
}

// Value returns the display form of a key accepted by Apply.
func (s Settings) Value(key string) string {
	switch key {
	case "app_id":
		if s.AppID == 0 {
			return ""
		}
		return strconv.Itoa(s.AppID)
	case "app_hash":
		return s.AppHash
	case "recipient":
		return s.Recipient
	case "bot_username":
		return s.BotUsername
	case "bot_profile_label":
		return s.ProfileLabel
	case "min_delay":
		return strconv.FormatFloat(s.MinDelay, 'f', -1, 64)
	case "max_delay":
		return strconv.FormatFloat(s.MaxDelay, 'f', -1, 64)
	case "settle_delay":
		return strconv.FormatFloat(s.SettleDelay, 'f', -1, 64)
	case "fetch_window":
		return strconv.Itoa(s.FetchWindow)
	}
	return ""
}

// SettingKeys lists the keys accepted by Apply, in display order.
func SettingKeys() []string {
	return []string{
		"app_id",
		"app_hash",
		"recipient",
		"bot_username",
		"bot_profile_label",
		"min_delay",
		"max_delay",
		"settle_delay",
		"fetch_window",
	}
}

func parseSeconds(key, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
