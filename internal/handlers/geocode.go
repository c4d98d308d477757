package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/triptales/triptales-backend/internal/config"
	"github.com/triptales/triptales-backend/internal/models"
	"github.com/triptales/triptales-backend/internal/services"
)

var geocoder *services.Geocoder

// InitGeocoder builds the shared geocoder. The returned instance is also
// handed to the upload workflow as its LocationNamer.
func InitGeocoder(cfg *config.Config) *services.Geocoder {
	geocoder = services.NewGeocoder(cfg.NominatimBaseURL)
	return geocoder
}

type ReverseGeocodeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	City    string `json:"city,omitempty"`
	Region  string `json:"region,omitempty"`
	Country string `json:"country,omitempty"`
	Label   string `json:"label,omitempty"`
}

// ReverseGeocode resolves ?latitude=..&longitude=.. to a place name. The app
// shows the label next to a journal's coordinate.
func ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if _, ok := requireAuth(r); !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(ReverseGeocodeResponse{
			Success: false,
			Message: "Authentication required",
		})
		return
	}

	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("latitude"), 64)
	lng, lngErr := strconv.ParseFloat(r.URL.Query().Get("longitude"), 64)
	if latErr != nil || lngErr != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ReverseGeocodeResponse{
			Success: false,
			Message: "latitude and longitude query parameters are required",
		})
		return
	}

	place, err := geocoder.Reverse(r.Context(), models.Coordinate{Latitude: lat, Longitude: lng})
	if err != nil {
		log.Printf("[ReverseGeocode] lookup failed: %v", err)
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(ReverseGeocodeResponse{
			Success: false,
			Message: "Failed to resolve location",
		})
		return
	}

	json.NewEncoder(w).Encode(ReverseGeocodeResponse{
		Success: true,
		City:    place.City,
		Region:  place.Region,
		Country: place.Country,
		Label:   place.DisplayLabel(),
	})
}
