package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/triptales/triptales-backend/internal/models"
	"github.com/triptales/triptales-backend/internal/services"
	"github.com/triptales/triptales-backend/pkg/utils"
)

// maxJournalUploadBytes caps the whole multipart submit (fields + images).
const maxJournalUploadBytes = 50 << 20 // 50MB

var (
	journalWorkflow *services.UploadWorkflow
	journalStore    services.JournalStore
	feedCache       = &services.CacheService{}
)

// InitJournalWorkflow wires the capture-and-sync workflow with its stores.
// namer may be nil when reverse geocoding is not configured.
func InitJournalWorkflow(blobs services.BlobStore, namer services.LocationNamer) {
	journalWorkflow = services.NewUploadWorkflow(blobs, journalStore, namer)
}

type CreateJournalResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Journal map[string]interface{} `json:"journal,omitempty"`
}

type GetJournalsResponse struct {
	Success  bool                     `json:"success"`
	Message  string                   `json:"message,omitempty"`
	Journals []map[string]interface{} `json:"journals"`
	Total    int                      `json:"total"`
}

func writeJournalError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(CreateJournalResponse{
		Success: false,
		Message: message,
	})
}

// parseCoordinate reads the optional latitude/longitude form fields. Both
// absent means the device never captured a location (permission denied); the
// workflow's validation rejects the draft in that case.
func parseCoordinate(latStr, lngStr string) (*models.Coordinate, error) {
	if latStr == "" && lngStr == "" {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, errors.New("invalid latitude")
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, errors.New("invalid longitude")
	}
	return &models.Coordinate{Latitude: lat, Longitude: lng}, nil
}

// CreateJournal accepts a multipart draft (title, notes, summary, location,
// image files) and runs the upload workflow. The order of the `images` file
// parts is the display order of the final record.
func CreateJournal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireAuth(r)
	if !ok {
		writeJournalError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if journalWorkflow == nil {
		writeJournalError(w, http.StatusInternalServerError, "Journal service not initialized")
		return
	}

	if err := r.ParseMultipartForm(maxJournalUploadBytes); err != nil {
		writeJournalError(w, http.StatusBadRequest, "Failed to parse form: "+err.Error())
		return
	}

	location, err := parseCoordinate(r.FormValue("latitude"), r.FormValue("longitude"))
	if err != nil {
		writeJournalError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Read image parts into memory in the order they were sent.
	var assets []services.Asset
	if r.MultipartForm != nil {
		for _, fileHeader := range r.MultipartForm.File["images"] {
			file, err := fileHeader.Open()
			if err != nil {
				writeJournalError(w, http.StatusBadRequest, "Failed to read image: "+err.Error())
				return
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				writeJournalError(w, http.StatusBadRequest, "Failed to read image: "+err.Error())
				return
			}
			assets = append(assets, services.Asset{Name: fileHeader.Filename, Data: data})
		}
	}

	draft := &services.JournalDraft{
		DraftID:  r.FormValue("draft_id"),
		UserID:   userID,
		Title:    r.FormValue("title"),
		Notes:    r.FormValue("notes"),
		Summary:  r.FormValue("summary"),
		Location: location,
		Assets:   assets,
	}

	journal, err := journalWorkflow.Submit(r.Context(), draft)
	if err != nil {
		var validationErr *services.ValidationError
		var uploadErr *services.UploadError
		var writeErr *services.RecordWriteError
		switch {
		case errors.As(err, &validationErr):
			writeJournalError(w, http.StatusBadRequest, "Please fill all fields: "+validationErr.Error())
		case errors.Is(err, services.ErrSubmitInFlight):
			writeJournalError(w, http.StatusConflict, "This journal is already being saved")
		case errors.As(err, &uploadErr):
			log.Printf("[CreateJournal] upload failed: %v", err)
			writeJournalError(w, http.StatusBadGateway, "Failed to upload images. Nothing was saved, please try again.")
		case errors.As(err, &writeErr):
			log.Printf("[CreateJournal] record write failed: %v", err)
			writeJournalError(w, http.StatusBadGateway, "Failed to save journal entry. Please try again.")
		default:
			log.Printf("[CreateJournal] submit failed: %v", err)
			writeJournalError(w, http.StatusInternalServerError, "Failed to save journal entry")
		}
		return
	}

	// The shared map feed changed; drop the cached copy and tell live
	// map screens. Both are best effort.
	if err := feedCache.Invalidate(services.MapFeedCacheKey); err != nil {
		log.Printf("[CreateJournal] failed to invalidate map feed cache: %v", err)
	}
	event := services.FeedEvent{
		Type:         services.EventJournalCreated,
		JournalID:    journal.ID.Hex(),
		UserID:       journal.UserIDString,
		Title:        journal.Title,
		Location:     journal.Location,
		LocationName: journal.LocationName,
		Timestamp:    journal.CreatedAt,
	}
	if len(journal.Images) > 0 {
		event.CoverImage = journal.Images[0]
	}
	if err := services.PublishFeedEvent(r.Context(), event); err != nil {
		log.Printf("[CreateJournal] failed to publish feed event: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(CreateJournalResponse{
		Success: true,
		Message: "Journal created successfully",
		Journal: journalMap(*journal),
	})
}

// GetJournals returns the authenticated user's journal entries, newest
// first. The optional q parameter applies the home screen's search filter.
func GetJournals(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireAuth(r)
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(GetJournalsResponse{
			Success:  false,
			Message:  "Authentication required",
			Journals: []map[string]interface{}{},
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	journals, err := journalStore.ByUser(ctx, userID)
	if err != nil {
		log.Printf("[GetJournals] fetch failed: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(GetJournalsResponse{
			Success:  false,
			Message:  "Failed to fetch journals",
			Journals: []map[string]interface{}{},
		})
		return
	}

	journals = services.SortJournalsNewestFirst(journals)
	journals = services.FilterJournals(journals, r.URL.Query().Get("q"))

	result := make([]map[string]interface{}, 0, len(journals))
	for _, j := range journals {
		result = append(result, journalMap(j))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GetJournalsResponse{
		Success:  true,
		Journals: result,
		Total:    len(result),
	})
}

// GetMapFeed returns every user's located journals for the shared map
// screen. Entries without a location are omitted. The response is cached in
// Redis for a short window since it is identical for every caller.
func GetMapFeed(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAuth(r); !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(GetJournalsResponse{
			Success:  false,
			Message:  "Authentication required",
			Journals: []map[string]interface{}{},
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")

	var cached []map[string]interface{}
	if hit, _ := feedCache.Get(services.MapFeedCacheKey, &cached); hit {
		json.NewEncoder(w).Encode(GetJournalsResponse{
			Success:  true,
			Journals: cached,
			Total:    len(cached),
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	journals, err := journalStore.All(ctx)
	if err != nil {
		log.Printf("[GetMapFeed] fetch failed: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(GetJournalsResponse{
			Success:  false,
			Message:  "Failed to fetch journals",
			Journals: []map[string]interface{}{},
		})
		return
	}

	result := make([]map[string]interface{}, 0, len(journals))
	for _, j := range journals {
		if j.Location == nil {
			continue
		}
		result = append(result, journalMap(j))
	}

	if err := feedCache.Set(services.MapFeedCacheKey, result); err != nil {
		log.Printf("[GetMapFeed] failed to cache map feed: %v", err)
	}

	json.NewEncoder(w).Encode(GetJournalsResponse{
		Success:  true,
		Journals: result,
		Total:    len(result),
	})
}

func journalMap(j models.Journal) map[string]interface{} {
	images := j.Images
	if images == nil {
		images = []string{}
	}
	m := map[string]interface{}{
		"id":             j.ID.Hex(),
		"user_id":        j.UserIDString,
		"title":          j.Title,
		"notes":          j.Notes,
		"summary":        j.Summary,
		"images":         images,
		"location_name":  j.LocationName,
		"created_at":     j.CreatedAt,
		"formatted_date": utils.FormatJournalDate(j.CreatedAt),
	}
	if j.Location != nil {
		m["location"] = j.Location
	}
	return m
}
