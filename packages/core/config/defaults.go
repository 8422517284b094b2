package config

const (
	// DefaultBaseURL is the Story Spoiler service the suite targets.
	DefaultBaseURL = "https://d3s5nxhwblsjbi.cloudfront.net"
	// DefaultUsername is the fixed test account.
	DefaultUsername = "vasi456"
	// DefaultPassword is the fixed test account's password.
	DefaultPassword = "vasi456"
	// DefaultTimeout is the request timeout in milliseconds.
	DefaultTimeout = 30000
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     DefaultBaseURL,
		Username:    DefaultUsername,
		Password:    DefaultPassword,
		Timeout:     DefaultTimeout,
		Rate:        0,
		ValidateSSL: BoolPtr(true),
		Cleanup:     BoolPtr(true),
		Bail:        BoolPtr(false),
		Verbose:     BoolPtr(false),
		NoColor:     BoolPtr(false),
		Output:      "console",
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.BaseURL == defaults.BaseURL &&
		c.Username == defaults.Username &&
		c.Password == defaults.Password &&
		c.Timeout == defaults.Timeout &&
		c.Rate == defaults.Rate &&
		c.Proxy == defaults.Proxy &&
		len(c.Headers) == 0 &&
		c.StoryID == defaults.StoryID &&
		c.History == defaults.History &&
		c.Output == defaults.Output &&
		c.GetValidateSSL() == defaults.GetValidateSSL() &&
		c.GetCleanup() == defaults.GetCleanup() &&
		c.GetBail() == defaults.GetBail() &&
		c.GetVerbose() == defaults.GetVerbose() &&
		c.GetNoColor() == defaults.GetNoColor()
}
