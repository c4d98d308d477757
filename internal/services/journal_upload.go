package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/triptales/triptales-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BlobStore uploads image bytes under a caller-chosen key and returns a
// durable URL for the stored object.
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte) (string, error)
}

// RecordStore persists journal records.
type RecordStore interface {
	Insert(ctx context.Context, journal *models.Journal) (primitive.ObjectID, error)
}

// LocationNamer resolves a human-readable label for a coordinate.
type LocationNamer interface {
	Label(ctx context.Context, coord models.Coordinate) (string, error)
}

// Asset is one local image the user picked or captured, in memory.
type Asset struct {
	Name string
	Data []byte
}

// JournalDraft carries everything the editing screen accumulated before the
// user hit save. Assets keep pick order; that order is the display order of
// the final record's images.
type JournalDraft struct {
	DraftID  string
	UserID   string
	Title    string
	Notes    string
	Summary  string
	Location *models.Coordinate
	Assets   []Asset
}

// UploadWorkflow turns a draft into a durable journal record:
// validate -> upload every asset -> write one record. The record write is the
// commit point; until it succeeds no durable journal exists. Uploads are
// all-or-nothing: one failed image aborts the submit and nothing is written.
type UploadWorkflow struct {
	blobs    BlobStore
	records  RecordStore
	namer    LocationNamer // optional, may be nil
	inflight sync.Map      // draft key -> struct{}
	now      func() time.Time
}

func NewUploadWorkflow(blobs BlobStore, records RecordStore, namer LocationNamer) *UploadWorkflow {
	return &UploadWorkflow{
		blobs:   blobs,
		records: records,
		namer:   namer,
		now:     time.Now,
	}
}

// Submit runs the full capture-and-sync workflow for one draft.
// A second Submit for the same draft while one is running returns
// ErrSubmitInFlight. After a failure the caller may submit again; the new
// attempt re-uploads every asset from scratch.
func (w *UploadWorkflow) Submit(ctx context.Context, draft *JournalDraft) (*models.Journal, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	guardKey := draft.DraftID
	if guardKey == "" {
		guardKey = draft.UserID
	}
	if _, loaded := w.inflight.LoadOrStore(guardKey, struct{}{}); loaded {
		return nil, ErrSubmitInFlight
	}
	defer w.inflight.Delete(guardKey)

	urls, err := w.uploadAssets(ctx, draft)
	if err != nil {
		return nil, err
	}

	journal := &models.Journal{
		CreatedAt:    w.now().UTC(),
		UserIDString: draft.UserID,
		Title:        draft.Title,
		Notes:        draft.Notes,
		Summary:      draft.Summary,
		Images:       urls,
		Location:     draft.Location,
	}

	// Best effort: a failed reverse geocode never fails the submit,
	// the record just has no location label.
	if w.namer != nil && draft.Location != nil {
		if label, err := w.namer.Label(ctx, *draft.Location); err == nil {
			journal.LocationName = label
		}
	}

	id, err := w.records.Insert(ctx, journal)
	if err != nil {
		return nil, &RecordWriteError{Err: err}
	}
	journal.ID = id

	return journal, nil
}

func validateDraft(draft *JournalDraft) error {
	if strings.TrimSpace(draft.Title) == "" {
		return &ValidationError{Field: "title"}
	}
	if strings.TrimSpace(draft.Notes) == "" {
		return &ValidationError{Field: "notes"}
	}
	if draft.Location == nil {
		return &ValidationError{Field: "location"}
	}
	return nil
}

// uploadAssets fans out one upload per asset and waits for all of them.
// URLs are collected by the asset's position in pick order, never by
// completion order. Keys are scoped by owner, submit timestamp and position
// so concurrent submits by the same user cannot collide. If any upload fails
// the whole batch fails; images that already finished are left behind in
// blob storage (accepted orphan tradeoff, no compensating cleanup).
func (w *UploadWorkflow) uploadAssets(ctx context.Context, draft *JournalDraft) ([]string, error) {
	urls := make([]string, len(draft.Assets))
	if len(draft.Assets) == 0 {
		return urls, nil
	}

	stamp := w.now().UnixMilli()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr *UploadError
	)

	for i, asset := range draft.Assets {
		wg.Add(1)
		go func(i int, asset Asset) {
			defer wg.Done()

			key := fmt.Sprintf("journalImages/%s/%d-%d", draft.UserID, stamp, i)
			url, err := w.blobs.Upload(ctx, key, asset.Data)
			if err != nil {
				mu.Lock()
				// Report the earliest asset by pick order, not whichever
				// goroutine lost the race.
				if firstErr == nil || i < firstErr.Index {
					firstErr = &UploadError{Index: i, Err: err}
				}
				mu.Unlock()
				return
			}

			urls[i] = url
		}(i, asset)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return urls, nil
}
