package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinate(t *testing.T) {
	t.Run("both_empty_means_no_location", func(t *testing.T) {
		coord, err := parseCoordinate("", "")
		require.NoError(t, err)
		assert.Nil(t, coord)
	})

	t.Run("valid_pair", func(t *testing.T) {
		coord, err := parseCoordinate("48.8566", "2.3522")
		require.NoError(t, err)
		require.NotNil(t, coord)
		assert.InDelta(t, 48.8566, coord.Latitude, 0.0001)
		assert.InDelta(t, 2.3522, coord.Longitude, 0.0001)
	})

	t.Run("negative_values", func(t *testing.T) {
		coord, err := parseCoordinate("-33.8688", "-70.6693")
		require.NoError(t, err)
		require.NotNil(t, coord)
		assert.InDelta(t, -33.8688, coord.Latitude, 0.0001)
	})

	t.Run("malformed_latitude", func(t *testing.T) {
		_, err := parseCoordinate("north", "2.3522")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "latitude")
	})

	t.Run("missing_longitude", func(t *testing.T) {
		_, err := parseCoordinate("48.8566", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "longitude")
	})
}
