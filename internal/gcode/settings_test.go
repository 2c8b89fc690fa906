package gcode

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettingsValid(t *testing.T) {
	assert.NoError(t, DefaultSettings().Validate())

	s := DefaultSettings()
	s.Mode = Retraction
	assert.NoError(t, s.Validate())
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		modify func(*Settings)
		field  string
	}{
		{"zero nozzle", func(s *Settings) { s.NozzleDiameter = 0 }, "nozzle diameter"},
		{"negative pull", func(s *Settings) { s.Pull = -1 }, "pull"},
		{"zero layer", func(s *Settings) { s.LayerHeight = 0 }, "layer height"},
		{"zero travel feed in retraction", func(s *Settings) {
			s.Mode = Retraction
			s.HorizontalFeed = 0
		}, "horizontal feed"},
	}

	for _, c := range cases {
		s := DefaultSettings()
		c.modify(&s)
		err := s.Validate()
		require.Error(t, err, c.name)
		assert.True(t, errors.Is(err, ErrInvalidSettings), c.name)
		assert.True(t, strings.HasPrefix(err.Error(), c.field), "%s: %v", c.name, err)
	}

	// layer height comes from the toolpath instead
	s := DefaultSettings()
	s.LayerHeight = 0
	s.VariableLayerHeight = true
	assert.NoError(t, s.Validate())
}

func TestFeedRate(t *testing.T) {
	assert.Equal(t, 3600.0, FeedRate(MmPerSecond, 60))
	assert.Equal(t, 3600.0, FeedRate(MmPerMinute, 3600))
}

func TestParse(t *testing.T) {
	m, err := ParseMode("RETR")
	require.NoError(t, err)
	assert.Equal(t, Retraction, m)
	_, err = ParseMode("spiral")
	assert.Error(t, err)

	r, err := ParseRetractionStyle("firmware")
	require.NoError(t, err)
	assert.Equal(t, FirmwareRetraction, r)
	_, err = ParseRetractionStyle("none")
	assert.Error(t, err)

	u, err := ParseSpeedUnit("feed")
	require.NoError(t, err)
	assert.Equal(t, MmPerMinute, u)
}
