package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/triptales/triptales-backend/internal/models"
)

// Place is the reverse-geocoded name of a coordinate.
type Place struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

// DisplayLabel joins the non-empty parts the way the app shows a journal's
// location, e.g. "Kyoto, Kyoto Prefecture, Japan".
func (p Place) DisplayLabel() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.City, p.Region, p.Country} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// Geocoder resolves coordinates to place names via the Nominatim
// (OpenStreetMap) reverse endpoint.
type Geocoder struct {
	baseURL string
	client  *http.Client
}

func NewGeocoder(baseURL string) *Geocoder {
	return &Geocoder{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type nominatimResponse struct {
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
	Error string `json:"error"`
}

// Reverse looks up the place for one coordinate. Nominatim uses city, town
// or village depending on the area; the first one present wins.
func (g *Geocoder) Reverse(ctx context.Context, coord models.Coordinate) (Place, error) {
	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", strconv.FormatFloat(coord.Latitude, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(coord.Longitude, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/reverse?"+query.Encode(), nil)
	if err != nil {
		return Place{}, err
	}
	// Nominatim's usage policy requires an identifying User-Agent.
	req.Header.Set("User-Agent", "triptales-backend/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return Place{}, fmt.Errorf("reverse geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Place{}, fmt.Errorf("failed to decode reverse geocode response: %w", err)
	}
	if parsed.Error != "" {
		return Place{}, fmt.Errorf("reverse geocode failed: %s", parsed.Error)
	}

	city := parsed.Address.City
	if city == "" {
		city = parsed.Address.Town
	}
	if city == "" {
		city = parsed.Address.Village
	}

	return Place{
		City:    city,
		Region:  parsed.Address.State,
		Country: parsed.Address.Country,
	}, nil
}

// Label satisfies LocationNamer for the upload workflow.
func (g *Geocoder) Label(ctx context.Context, coord models.Coordinate) (string, error) {
	place, err := g.Reverse(ctx, coord)
	if err != nil {
		return "", err
	}
	return place.DisplayLabel(), nil
}
