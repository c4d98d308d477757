package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/triptales/triptales-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeBlobStore simulates Cloudinary. Latency and failures are injected per
// asset index (parsed from the upload key's trailing "-N").
type fakeBlobStore struct {
	uploads int32
	delays  map[int]time.Duration
	failAt  int           // index that fails; -1 for none
	block   chan struct{} // when set, uploads wait until it is closed
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{failAt: -1}
}

func (f *fakeBlobStore) Upload(ctx context.Context, key string, data []byte) (string, error) {
	atomic.AddInt32(&f.uploads, 1)

	idx := indexFromKey(key)
	if f.block != nil {
		<-f.block
	}
	if d, ok := f.delays[idx]; ok {
		time.Sleep(d)
	}
	if idx == f.failAt {
		return "", errors.New("connection reset")
	}
	return "https://cdn.example.com/" + key, nil
}

func indexFromKey(key string) int {
	pos := strings.LastIndex(key, "-")
	if pos == -1 {
		return -1
	}
	idx, err := strconv.Atoi(key[pos+1:])
	if err != nil {
		return -1
	}
	return idx
}

type fakeRecordStore struct {
	mu      sync.Mutex
	inserts []models.Journal
	fail    bool
}

func (f *fakeRecordStore) Insert(ctx context.Context, journal *models.Journal) (primitive.ObjectID, error) {
	if f.fail {
		return primitive.NilObjectID, errors.New("write refused")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts = append(f.inserts, *journal)
	return primitive.NewObjectID(), nil
}

func (f *fakeRecordStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inserts)
}

type fakeNamer struct {
	label string
	err   error
}

func (f *fakeNamer) Label(ctx context.Context, coord models.Coordinate) (string, error) {
	return f.label, f.err
}

func testDraft(assetCount int) *JournalDraft {
	assets := make([]Asset, 0, assetCount)
	for i := 0; i < assetCount; i++ {
		assets = append(assets, Asset{
			Name: fmt.Sprintf("photo-%d.jpg", i),
			Data: []byte{0xFF, 0xD8, byte(i)},
		})
	}
	return &JournalDraft{
		DraftID:  "draft-1",
		UserID:   "user-1",
		Title:    "Paris Trip",
		Notes:    "Croissants by the Seine",
		Location: &models.Coordinate{Latitude: 48.8566, Longitude: 2.3522},
		Assets:   assets,
	}
}

func TestSubmit_MissingFieldBlocksAllSideEffects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*JournalDraft)
		field  string
	}{
		{"missing_title", func(d *JournalDraft) { d.Title = "  " }, "title"},
		{"missing_notes", func(d *JournalDraft) { d.Notes = "" }, "notes"},
		{"missing_location", func(d *JournalDraft) { d.Location = nil }, "location"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blobs := newFakeBlobStore()
			records := &fakeRecordStore{}
			workflow := NewUploadWorkflow(blobs, records, nil)

			draft := testDraft(2)
			tt.mutate(draft)

			journal, err := workflow.Submit(context.Background(), draft)

			require.Error(t, err)
			assert.Nil(t, journal)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)

			assert.Zero(t, atomic.LoadInt32(&blobs.uploads), "validation failure must not upload anything")
			assert.Zero(t, records.count(), "validation failure must not write a record")
		})
	}
}

func TestSubmit_ImageOrderMatchesPickOrder(t *testing.T) {
	blobs := newFakeBlobStore()
	// Finish uploads in reverse: the first-picked asset completes last.
	blobs.delays = map[int]time.Duration{
		0: 80 * time.Millisecond,
		1: 60 * time.Millisecond,
		2: 40 * time.Millisecond,
		3: 0,
	}
	records := &fakeRecordStore{}
	workflow := NewUploadWorkflow(blobs, records, nil)

	journal, err := workflow.Submit(context.Background(), testDraft(4))

	require.NoError(t, err)
	require.Len(t, journal.Images, 4)
	for i, url := range journal.Images {
		assert.True(t, strings.HasSuffix(url, fmt.Sprintf("-%d", i)),
			"image %d should hold the url of the %d-th picked asset, got %s", i, i, url)
		assert.Contains(t, url, "journalImages/user-1/")
	}
	assert.Equal(t, 1, records.count())
}

func TestSubmit_SingleFailedUploadWritesNothing(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.failAt = 1
	records := &fakeRecordStore{}
	workflow := NewUploadWorkflow(blobs, records, nil)

	journal, err := workflow.Submit(context.Background(), testDraft(3))

	require.Error(t, err)
	assert.Nil(t, journal)

	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, 1, uploadErr.Index)

	assert.Zero(t, records.count(), "no record may exist after a failed upload")
	// All uploads were still attempted; survivors are orphaned by design.
	assert.Equal(t, int32(3), atomic.LoadInt32(&blobs.uploads))
}

func TestSubmit_RecordWriteFailureLeavesOrphans(t *testing.T) {
	blobs := newFakeBlobStore()
	records := &fakeRecordStore{fail: true}
	workflow := NewUploadWorkflow(blobs, records, nil)

	journal, err := workflow.Submit(context.Background(), testDraft(2))

	require.Error(t, err)
	assert.Nil(t, journal)

	var writeErr *RecordWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, int32(2), atomic.LoadInt32(&blobs.uploads))
}

func TestSubmit_SecondSubmitWhileInFlightIsRejected(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.block = make(chan struct{})
	records := &fakeRecordStore{}
	workflow := NewUploadWorkflow(blobs, records, nil)

	firstDone := make(chan error, 1)
	go func() {
		_, err := workflow.Submit(context.Background(), testDraft(1))
		firstDone <- err
	}()

	// Wait until the first submit is inside the upload barrier.
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&blobs.uploads) > 0
	}, time.Second, 5*time.Millisecond)

	_, err := workflow.Submit(context.Background(), testDraft(1))
	require.ErrorIs(t, err, ErrSubmitInFlight)

	close(blobs.block)
	require.NoError(t, <-firstDone)
	assert.Equal(t, 1, records.count(), "rapid double submit must produce exactly one record")

	// The guard is released after completion; a fresh submit goes through.
	_, err = workflow.Submit(context.Background(), testDraft(1))
	require.NoError(t, err)
	assert.Equal(t, 2, records.count())
}

func TestSubmit_NoAssets(t *testing.T) {
	records := &fakeRecordStore{}
	workflow := NewUploadWorkflow(newFakeBlobStore(), records, nil)

	journal, err := workflow.Submit(context.Background(), testDraft(0))

	require.NoError(t, err)
	require.NotNil(t, journal.Images)
	assert.Empty(t, journal.Images)
	assert.Equal(t, 1, records.count())
}

func TestSubmit_LocationLabelIsBestEffort(t *testing.T) {
	t.Run("geocode_failure_does_not_fail_submit", func(t *testing.T) {
		records := &fakeRecordStore{}
		workflow := NewUploadWorkflow(newFakeBlobStore(), records, &fakeNamer{err: errors.New("nominatim down")})

		journal, err := workflow.Submit(context.Background(), testDraft(1))

		require.NoError(t, err)
		assert.Empty(t, journal.LocationName)
	})

	t.Run("label_is_recorded", func(t *testing.T) {
		records := &fakeRecordStore{}
		workflow := NewUploadWorkflow(newFakeBlobStore(), records, &fakeNamer{label: "Paris, Île-de-France, France"})

		journal, err := workflow.Submit(context.Background(), testDraft(1))

		require.NoError(t, err)
		assert.Equal(t, "Paris, Île-de-France, France", journal.LocationName)
	})
}

func TestSubmit_RecordCarriesDraftFields(t *testing.T) {
	records := &fakeRecordStore{}
	workflow := NewUploadWorkflow(newFakeBlobStore(), records, nil)

	draft := testDraft(1)
	draft.Summary = "A short AI summary."

	journal, err := workflow.Submit(context.Background(), draft)

	require.NoError(t, err)
	assert.Equal(t, "user-1", journal.UserIDString)
	assert.Equal(t, "Paris Trip", journal.Title)
	assert.Equal(t, "Croissants by the Seine", journal.Notes)
	assert.Equal(t, "A short AI summary.", journal.Summary)
	require.NotNil(t, journal.Location)
	assert.InDelta(t, 48.8566, journal.Location.Latitude, 0.0001)
	assert.False(t, journal.CreatedAt.IsZero())
	assert.False(t, journal.ID.IsZero())
}
