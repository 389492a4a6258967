package config

import (
	"fmt"
	"strings"
)

// Validate checks ranges and enum values. Load calls it automatically.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageMemory, StorageSQLite:
	default:
		return fmt.Errorf("storage.backend must be %q or %q (got %q)", StorageMemory, StorageSQLite, c.Storage.Backend)
	}
	if c.Storage.Backend == StorageSQLite && strings.TrimSpace(c.Storage.DSN) == "" {
		return fmt.Errorf("storage.dsn is required for the sqlite backend")
	}

	if c.Live.InputSampleRate <= 0 || c.Live.OutputSampleRate <= 0 {
		return fmt.Errorf("live sample rates must be > 0 (got %d/%d)", c.Live.InputSampleRate, c.Live.OutputSampleRate)
	}
	if c.Live.BlockSize <= 0 {
		return fmt.Errorf("live.block_size must be > 0 (got %d)", c.Live.BlockSize)
	}

	if c.Inbox.Interval <= 0 {
		return fmt.Errorf("inbox.interval must be > 0 (got %s)", c.Inbox.Interval)
	}
	if c.Inbox.InitialDelay < 0 {
		return fmt.Errorf("inbox.initial_delay must be >= 0 (got %s)", c.Inbox.InitialDelay)
	}

	if c.Calendar.Availability < 0 || c.Calendar.Availability > 1 {
		return fmt.Errorf("calendar.availability must be within [0,1] (got %v)", c.Calendar.Availability)
	}

	switch c.Clipboard.Target {
	case ClipboardBuffer, ClipboardTerminal:
	default:
		return fmt.Errorf("clipboard.target must be %q or %q (got %q)", ClipboardBuffer, ClipboardTerminal, c.Clipboard.Target)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}

	return nil
}

// HasAPIKey reports whether a generative backend key is configured.
func (c *Config) HasAPIKey() bool {
	return strings.TrimSpace(c.Gemini.APIKey) != ""
}
