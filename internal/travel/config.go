package travel

import (
	"fmt"
	"strings"
)

// Config holds the deployment parameters of the travel linkage engine.
//
// The home jurisdiction is a pattern set, not a language construct: a record
// whose destination city or country matches any pattern (case-insensitive
// substring) is a home leg. Home legs are never treated as independent trips
// requiring hotel verification.
type Config struct {
	// HomeCities are city patterns of the home jurisdiction.
	HomeCities []string `json:"home_cities"`

	// HomeCountries are country patterns of the home jurisdiction.
	HomeCountries []string `json:"home_countries"`
}

// DefaultConfig returns an engine configuration with no home jurisdiction.
// Deployments must configure one for bridging to find home-bound arrivals.
func DefaultConfig() *Config {
	return &Config{}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	for _, p := range append(append([]string(nil), c.HomeCities...), c.HomeCountries...) {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("home jurisdiction patterns cannot be blank")
		}
	}
	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	return &Config{
		HomeCities:    append([]string(nil), c.HomeCities...),
		HomeCountries: append([]string(nil), c.HomeCountries...),
	}
}

// IsHome reports whether a destination matches the home-jurisdiction pattern
// set.
func (c *Config) IsHome(city, country string) bool {
	return matchesAny(city, c.HomeCities) || matchesAny(country, c.HomeCountries)
}

func matchesAny(value string, patterns []string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return false
	}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" && strings.Contains(v, p) {
			return true
		}
	}
	return false
}
