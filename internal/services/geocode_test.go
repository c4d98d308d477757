package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/triptales/triptales-backend/internal/models"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const geocoderTestURL = "https://nominatim.test"

func newTestGeocoder(t *testing.T) *Geocoder {
	t.Helper()
	g := NewGeocoder(geocoderTestURL)
	httpmock.ActivateNonDefault(g.client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return g
}

func TestReverse_City(t *testing.T) {
	g := newTestGeocoder(t)

	httpmock.RegisterResponder(http.MethodGet, geocoderTestURL+"/reverse",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "jsonv2", req.URL.Query().Get("format"))
			assert.Equal(t, "35.0116", req.URL.Query().Get("lat"))
			assert.Equal(t, "135.7681", req.URL.Query().Get("lon"))
			assert.NotEmpty(t, req.Header.Get("User-Agent"))

			return httpmock.NewStringResponse(http.StatusOK,
				`{"address":{"city":"Kyoto","state":"Kyoto Prefecture","country":"Japan"}}`), nil
		})

	place, err := g.Reverse(context.Background(), models.Coordinate{Latitude: 35.0116, Longitude: 135.7681})

	require.NoError(t, err)
	assert.Equal(t, Place{City: "Kyoto", Region: "Kyoto Prefecture", Country: "Japan"}, place)
	assert.Equal(t, "Kyoto, Kyoto Prefecture, Japan", place.DisplayLabel())
}

func TestReverse_TownAndVillageFallback(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"town", `{"address":{"town":"Hallstatt","country":"Austria"}}`, "Hallstatt"},
		{"village", `{"address":{"village":"Bibury","country":"United Kingdom"}}`, "Bibury"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGeocoder(t)
			httpmock.RegisterResponder(http.MethodGet, geocoderTestURL+"/reverse",
				httpmock.NewStringResponder(http.StatusOK, tt.body))

			place, err := g.Reverse(context.Background(), models.Coordinate{Latitude: 1, Longitude: 1})

			require.NoError(t, err)
			assert.Equal(t, tt.want, place.City)
		})
	}
}

func TestReverse_ErrorBody(t *testing.T) {
	g := newTestGeocoder(t)

	httpmock.RegisterResponder(http.MethodGet, geocoderTestURL+"/reverse",
		httpmock.NewStringResponder(http.StatusOK, `{"error":"Unable to geocode"}`))

	_, err := g.Reverse(context.Background(), models.Coordinate{Latitude: 0, Longitude: 0})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unable to geocode")
}

func TestDisplayLabel_SkipsEmptyParts(t *testing.T) {
	assert.Equal(t, "Japan", Place{Country: "Japan"}.DisplayLabel())
	assert.Equal(t, "Kyoto, Japan", Place{City: "Kyoto", Country: "Japan"}.DisplayLabel())
	assert.Empty(t, Place{}.DisplayLabel())
}

func TestLabel_UsesDisplayLabel(t *testing.T) {
	g := newTestGeocoder(t)

	httpmock.RegisterResponder(http.MethodGet, geocoderTestURL+"/reverse",
		httpmock.NewStringResponder(http.StatusOK,
			`{"address":{"city":"Porto","state":"Norte","country":"Portugal"}}`))

	label, err := g.Label(context.Background(), models.Coordinate{Latitude: 41.1579, Longitude: -8.6291})

	require.NoError(t, err)
	assert.Equal(t, "Porto, Norte, Portugal", label)
}
