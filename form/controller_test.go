package form

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"memoryshare/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTagger struct {
	mu          sync.Mutex
	calls       int
	suggestions []models.TagSuggestion
	err         error
	block       chan struct{}
}

func (s *stubTagger) SuggestTags(ctx context.Context, title, description string, topK int) ([]models.TagSuggestion, error) {
	s.mu.Lock()
	s.calls++
	block := s.block
	s.mu.Unlock()

	if block != nil {
		<-block
	}
	return s.suggestions, s.err
}

func (s *stubTagger) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubUploader struct {
	resp *models.UploadResponse
	err  error
	last *Submission
}

func (s *stubUploader) Upload(ctx context.Context, sub Submission) (*models.UploadResponse, error) {
	s.last = &sub
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func TestToggleTagTwiceRestoresOriginalSet(t *testing.T) {
	c := NewController(&stubTagger{}, &stubUploader{}, Callbacks{})

	c.ToggleTag("Birthday")
	require.Equal(t, []string{"Birthday"}, c.Tags())

	c.ToggleTag("Outdoor")
	c.ToggleTag("Outdoor")
	assert.Equal(t, []string{"Birthday"}, c.Tags())
}

func TestGenerateTagsUnionKeepsManualTags(t *testing.T) {
	tg := &stubTagger{suggestions: []models.TagSuggestion{
		{Tag: "Birthday", Score: 0.9},
		{Tag: "Outdoor", Score: 0.7},
	}}
	c := NewController(tg, &stubUploader{}, Callbacks{})

	c.SetTitle("Birthday party")
	c.ToggleTag("Birthday")

	require.NoError(t, c.GenerateTags(context.Background()))

	// Set union: the duplicate collapses, the manual tag survives
	assert.Equal(t, []string{"Birthday", "Outdoor"}, c.Tags())
	assert.Equal(t, StateIdle, c.State())
}

func TestGenerateTagsWithoutInputNeverCallsService(t *testing.T) {
	tg := &stubTagger{}
	var alerts []string
	c := NewController(tg, &stubUploader{}, Callbacks{
		OnAlert: func(msg string) { alerts = append(alerts, msg) },
	})

	err := c.GenerateTags(context.Background())

	require.ErrorIs(t, err, ErrMissingInput)
	assert.Zero(t, tg.callCount())
	assert.Equal(t, []string{AlertMissingInput}, alerts)
}

func TestGenerateTagsFailureLeavesDraftUnchanged(t *testing.T) {
	tg := &stubTagger{err: errors.New("service down")}
	var alerts []string
	c := NewController(tg, &stubUploader{}, Callbacks{
		OnAlert: func(msg string) { alerts = append(alerts, msg) },
	})

	c.SetTitle("Beach Day")
	c.ToggleTag("Beach")

	err := c.GenerateTags(context.Background())

	require.Error(t, err)
	assert.Equal(t, []string{"Beach"}, c.Tags())
	assert.Equal(t, "Beach Day", c.Title())
	assert.Equal(t, []string{AlertGenerateFailed}, alerts)
	assert.Equal(t, StateIdle, c.State())
}

func TestSubmitSuccessResetsDraft(t *testing.T) {
	up := &stubUploader{resp: &models.UploadResponse{Media: "img1.jpg"}}
	var result *SubmitResult
	closed := false
	c := NewController(&stubTagger{}, up, Callbacks{
		OnSuccess: func(r SubmitResult) { result = &r },
		OnClose:   func() { closed = true },
	})

	c.SetTitle("Beach Day")
	c.SetDescription("Sunny afternoon")
	c.ToggleTag("Beach")
	c.AttachFile(&Attachment{Name: "beach.jpg", Data: []byte("jpegdata")})

	require.NoError(t, c.Submit(context.Background()))

	require.NotNil(t, result)
	assert.Equal(t, "Beach Day", result.Title)
	assert.Equal(t, "Beach", result.Tags)
	assert.Equal(t, "img1.jpg", result.Media)
	assert.True(t, closed)

	// Draft back to its default shape
	assert.Empty(t, c.Title())
	assert.Empty(t, c.Description())
	assert.Empty(t, c.Tags())
	assert.Nil(t, c.File())
	assert.WithinDuration(t, time.Now(), c.UploadDate(), time.Minute)
	assert.Equal(t, StateIdle, c.State())
}

func TestSubmitFailureKeepsDraftForRetry(t *testing.T) {
	up := &stubUploader{err: errors.New("boom")}
	var alerts []string
	c := NewController(&stubTagger{}, up, Callbacks{
		OnAlert: func(msg string) { alerts = append(alerts, msg) },
	})

	c.SetTitle("Beach Day")
	c.ToggleTag("Beach")
	c.AttachFile(&Attachment{Name: "beach.jpg", Data: []byte("jpegdata")})

	err := c.Submit(context.Background())

	require.Error(t, err)
	assert.Equal(t, "Beach Day", c.Title())
	assert.Equal(t, []string{"Beach"}, c.Tags())
	assert.NotNil(t, c.File())
	assert.Equal(t, []string{AlertUploadFailed}, alerts)
	assert.Equal(t, StateIdle, c.State())
}

func TestSubmitWhileGeneratingTagsIsRejected(t *testing.T) {
	block := make(chan struct{})
	tg := &stubTagger{
		suggestions: []models.TagSuggestion{{Tag: "Outdoor"}},
		block:       block,
	}
	up := &stubUploader{resp: &models.UploadResponse{Media: "img1.jpg"}}
	c := NewController(tg, up, Callbacks{})

	c.SetTitle("Beach Day")

	done := make(chan error, 1)
	go func() { done <- c.GenerateTags(context.Background()) }()

	// Wait for the generate operation to take the state machine
	require.Eventually(t, func() bool {
		return c.State() == StateGeneratingTags
	}, time.Second, time.Millisecond)

	err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.Nil(t, up.last)

	close(block)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"Outdoor"}, c.Tags())
}

func TestCloseDuringGenerateTagsDropsLateSuggestions(t *testing.T) {
	block := make(chan struct{})
	tg := &stubTagger{
		suggestions: []models.TagSuggestion{{Tag: "Outdoor"}},
		block:       block,
	}
	c := NewController(tg, &stubUploader{}, Callbacks{})

	c.SetTitle("Beach Day")

	done := make(chan error, 1)
	go func() { done <- c.GenerateTags(context.Background()) }()

	require.Eventually(t, func() bool {
		return c.State() == StateGeneratingTags
	}, time.Second, time.Millisecond)

	// Dismiss the form while the classifier is still working
	c.Close()
	assert.Empty(t, c.Tags())

	close(block)
	require.NoError(t, <-done)

	// The reset draft must not accumulate the late suggestions
	assert.Empty(t, c.Tags())
	assert.Equal(t, StateIdle, c.State())
}

func TestGenerateTagsAfterCloseStartsFreshUnion(t *testing.T) {
	tg := &stubTagger{suggestions: []models.TagSuggestion{{Tag: "Outdoor"}}}
	c := NewController(tg, &stubUploader{}, Callbacks{})

	c.SetTitle("Beach Day")
	c.Close()

	// A new draft still receives suggestions normally
	c.SetTitle("Birthday party")
	require.NoError(t, c.GenerateTags(context.Background()))
	assert.Equal(t, []string{"Outdoor"}, c.Tags())
}

func TestCloseResetsDraftAndSignalsDismissal(t *testing.T) {
	closed := 0
	c := NewController(&stubTagger{}, &stubUploader{}, Callbacks{
		OnClose: func() { closed++ },
	})

	c.SetTitle("Beach Day")
	c.ToggleTag("Beach")
	c.Close()

	assert.Empty(t, c.Title())
	assert.Empty(t, c.Tags())
	assert.Equal(t, 1, closed)

	// Safe to call again
	c.Close()
	assert.Equal(t, 2, closed)
}

func TestSubmitEndToEndAgainstUploadEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Beach Day", r.FormValue("text"))
		assert.Equal(t, "", r.FormValue("tags_input"))

		_, header, err := r.FormFile("files")
		require.NoError(t, err)
		assert.Equal(t, "beach.jpg", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"media": "img1.jpg"})
	}))
	defer server.Close()

	var result *SubmitResult
	c := NewController(&stubTagger{}, NewHTTPUploader(server.URL), Callbacks{
		OnSuccess: func(r SubmitResult) { result = &r },
	})

	c.SetTitle("Beach Day")
	c.AttachFile(&Attachment{Name: "beach.jpg", Data: []byte("jpegdata")})

	require.NoError(t, c.Submit(context.Background()))

	require.NotNil(t, result)
	assert.Equal(t, "", result.Tags)
	assert.Equal(t, "img1.jpg", result.Media)
}

func TestSubmitFailsOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewController(&stubTagger{}, NewHTTPUploader(server.URL), Callbacks{})
	c.SetTitle("Beach Day")

	require.Error(t, c.Submit(context.Background()))
	assert.Equal(t, "Beach Day", c.Title())
}
