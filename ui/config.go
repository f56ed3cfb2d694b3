package ui

// DefaultPageSize is the default number of sessions per page.
const DefaultPageSize = 25

// Config holds UI package configuration.
type Config struct {
	// BasePath is the URL prefix where the UI is mounted.
	// For example, if mounted at "/ui/", set BasePath to "/ui".
	// Defaults to empty string (root mount).
	BasePath string

	// PageSize for the session list.
	// Defaults to 25.
	PageSize int
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{PageSize: DefaultPageSize}
}

// applyDefaults fills in default values for zero-valued fields.
func (c *Config) applyDefaults() {
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
}

// validate checks the configuration for errors.
func (c *Config) validate() error {
	if c.PageSize < 1 {
		return ErrInvalidConfig
	}
	return nil
}
