package stratum

import (
	"io"
	"time"

	"github.com/pelletier/go-toml"

	"github.com/featurebasedb/stratum/errors"
	"github.com/featurebasedb/stratum/planner"
)

const (
	// defaultRowCheckInterval is how many scanned rows pass between polls of
	// the cooperative cancel flag.
	defaultRowCheckInterval = 128

	// defaultLongQueryTime is the threshold above which a completed
	// statement is logged as slow.
	defaultLongQueryTime = time.Minute
)

// Duration is a TOML-friendly wrapper for time.Duration.
type Duration time.Duration

// String returns the string representation of the duration.
func (d Duration) String() string { return time.Duration(d).String() }

// UnmarshalText parses a TOML value into a duration value.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText writes duration value in text format.
func (d Duration) MarshalText() (text []byte, err error) {
	return []byte(d.String()), nil
}

// MarshalTOML write duration into valid TOML.
func (d Duration) MarshalTOML() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// Config holds the tunable knobs of the execution core.
type Config struct {
	// LongQueryTime is the slow-statement logging threshold. Zero disables
	// slow-statement logging.
	LongQueryTime Duration `toml:"long-query-time"`

	// RowCheckInterval is the number of scanned rows between cancellation
	// polls during row iteration.
	RowCheckInterval int `toml:"row-check-interval"`

	// UniqueNulls selects the uniqueness/null policy: "distinct",
	// "all-distinct", or "not-distinct".
	UniqueNulls string `toml:"unique-nulls"`
}

// NewConfig returns a Config with all defaults applied.
func NewConfig() *Config {
	return &Config{
		LongQueryTime:    Duration(defaultLongQueryTime),
		RowCheckInterval: defaultRowCheckInterval,
		UniqueNulls:      "distinct",
	}
}

// DecodeConfig reads a TOML config, applying defaults for absent fields.
func DecodeConfig(r io.Reader) (*Config, error) {
	c := NewConfig()
	if err := toml.NewDecoder(r).Decode(c); err != nil {
		return nil, errors.Wrapf(err, "decoding config")
	}
	if c.RowCheckInterval <= 0 {
		return nil, errors.Errorf("row-check-interval must be positive, got %d", c.RowCheckInterval)
	}
	if _, err := c.NullPolicy(); err != nil {
		return nil, err
	}
	return c, nil
}

// NullPolicy maps the configured unique-nulls string onto the planner's
// policy enum.
func (c *Config) NullPolicy() (planner.NullPolicy, error) {
	switch c.UniqueNulls {
	case "", "distinct":
		return planner.NullsDistinct, nil
	case "all-distinct":
		return planner.NullsAllDistinct, nil
	case "not-distinct":
		return planner.NullsNotDistinct, nil
	default:
		return 0, errors.Errorf("unknown unique-nulls policy %q", c.UniqueNulls)
	}
}
