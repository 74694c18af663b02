package recon

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultAdvisorBatchSize is the number of anchors sent per advisory request.
const DefaultAdvisorBatchSize = 15

// Config holds configuration parameters for the reconciliation engine.
type Config struct {
	// AdvisorBatchSize bounds the anchors per advisory request. Each batch is
	// paired with the entire proof pool.
	AdvisorBatchSize int `json:"advisor_batch_size"`

	// AdvisorMaxRetries bounds backoff retries on rate-limit signals.
	AdvisorMaxRetries int `json:"advisor_max_retries"`

	// AdvisorRetryBaseDelay is the initial backoff delay, doubled per retry.
	AdvisorRetryBaseDelay time.Duration `json:"advisor_retry_base_delay"`

	// MandatoryKeywords classify an unmatched anchor as mandatory-missing
	// when its merchant or category contains any of them.
	MandatoryKeywords []string `json:"mandatory_keywords"`

	// OptionalKeywords classify an unmatched anchor as optional-missing.
	OptionalKeywords []string `json:"optional_keywords"`

	// OptionalAmountThreshold classifies small unmatched anchors (in base
	// currency) as optional regardless of merchant.
	OptionalAmountThreshold decimal.Decimal `json:"optional_amount_threshold"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		AdvisorBatchSize:      DefaultAdvisorBatchSize,
		AdvisorMaxRetries:     3,
		AdvisorRetryBaseDelay: 500 * time.Millisecond,
		MandatoryKeywords: []string{
			"travel", "hotel", "flight", "airline", "airways", "air ",
			"transport", "taxi", "rail", "train", "lodging", "accommodation",
		},
		OptionalKeywords: []string{
			"fee", "vat", "tax", "transfer", "charge", "commission", "interest",
		},
		OptionalAmountThreshold: decimal.NewFromInt(10),
	}
}

// Validate checks if the reconciliation configuration is valid
func (c *Config) Validate() error {
	if c.AdvisorBatchSize <= 0 {
		return fmt.Errorf("advisor batch size must be positive: %d", c.AdvisorBatchSize)
	}

	if c.AdvisorMaxRetries < 0 {
		return fmt.Errorf("advisor max retries cannot be negative: %d", c.AdvisorMaxRetries)
	}

	if c.AdvisorRetryBaseDelay < 0 {
		return fmt.Errorf("advisor retry delay cannot be negative: %s", c.AdvisorRetryBaseDelay)
	}

	if c.OptionalAmountThreshold.IsNegative() {
		return fmt.Errorf("optional amount threshold cannot be negative: %s", c.OptionalAmountThreshold)
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	clone := *c
	clone.MandatoryKeywords = append([]string(nil), c.MandatoryKeywords...)
	clone.OptionalKeywords = append([]string(nil), c.OptionalKeywords...)
	return &clone
}
