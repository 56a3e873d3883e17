package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nestedOptions struct {
	Depth int32 `opt:"nested.depth"`
}

type testOptions struct {
	Name     string        `opt:"name"`
	Enabled  bool          `opt:"enabled"`
	Count    int           `opt:"count"`
	Ratio    float64       `opt:"ratio"`
	Wait     time.Duration `opt:"waitMillis"`
	Ignored  string
	Children nestedOptions
}

func TestApplyOptions(t *testing.T) {
	cfg := testOptions{Name: "default", Count: 1}
	unknown, err := ApplyOptions(&cfg, map[string]string{
		"name":         "broker",
		"enabled":      "true",
		"count":        "42",
		"ratio":        "2.5",
		"waitMillis":   "1500",
		"nested.depth": "7",
		"mystery":      "x",
	})
	require.NoError(t, err)

	assert.Equal(t, "broker", cfg.Name)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 42, cfg.Count)
	assert.Equal(t, 2.5, cfg.Ratio)
	assert.Equal(t, 1500*time.Millisecond, cfg.Wait, "duration options are milliseconds")
	assert.Equal(t, int32(7), cfg.Children.Depth)
	assert.Contains(t, unknown, "mystery")
}

func TestApplyOptionsRejectsBadValues(t *testing.T) {
	cfg := testOptions{}
	_, err := ApplyOptions(&cfg, map[string]string{"count": "many"})
	require.Error(t, err)

	_, err = ApplyOptions(cfg, nil) //nolint:govet // non-pointer on purpose
	require.Error(t, err, "requires a struct pointer")
}

func TestLoadAppliesEnvDefaults(t *testing.T) {
	type cfg struct {
		Level string `env:"CONFIG_TEST_LEVEL" env-default:"INFO" validate:"required"`
	}
	var c cfg
	require.NoError(t, Load(&c))
	assert.Equal(t, "INFO", c.Level)

	t.Setenv("CONFIG_TEST_LEVEL", "DEBUG")
	var c2 cfg
	require.NoError(t, Load(&c2))
	assert.Equal(t, "DEBUG", c2.Level)
}
