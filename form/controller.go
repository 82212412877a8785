package form

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"memoryshare/models"
	"memoryshare/tagger"
	"memoryshare/utils"
)

// State is the controller's explicit operation state. The zero value is
// StateIdle. GenerateTags and Submit both require StateIdle, so the two
// network operations can never be in flight at the same time.
type State int

const (
	StateIdle State = iota
	StateGeneratingTags
	StateUploading
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGeneratingTags:
		return "generating_tags"
	case StateUploading:
		return "uploading"
	default:
		return "unknown"
	}
}

// ErrBusy is returned when an operation is triggered while another is in flight
var ErrBusy = errors.New("another operation is in progress")

// ErrMissingInput is returned when GenerateTags is called with an empty draft
var ErrMissingInput = errors.New("title or description is required")

// Alert messages surfaced through OnAlert
const (
	AlertMissingInput     = "Please enter a title or a description before generating tags."
	AlertGenerateFailed   = "Could not generate tags. Please try again."
	AlertUploadFailed     = "Could not upload your memory. Please try again."
	AlertOperationPending = "Please wait for the current operation to finish."
)

// Attachment is the photo selected for the draft
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// SubmitResult is passed to OnSuccess after a successful upload
type SubmitResult struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	UploadDate  time.Time      `json:"upload_date"`
	Tags        string         `json:"tags"` // space-joined, matches the upload payload
	TagList     []string       `json:"tag_list"`
	Media       string         `json:"media"`
	Memory      *models.Memory `json:"memory,omitempty"`
}

// Callbacks notify the embedding UI of controller events. Nil callbacks are
// skipped.
type Callbacks struct {
	OnSuccess func(SubmitResult)
	OnAlert   func(string)
	OnClose   func()
}

// Controller manages the draft state of a memory being composed.
// All operations are safe for concurrent use; the state machine rejects
// overlapping GenerateTags/Submit invocations instead of racing them.
type Controller struct {
	tagger    tagger.Tagger
	uploader  Uploader
	callbacks Callbacks
	topK      int

	mu          sync.Mutex
	state       State
	generation  uint64
	title       string
	description string
	uploadDate  time.Time
	tags        map[string]struct{}
	file        *Attachment
}

// NewController creates a controller with an empty draft
func NewController(tg tagger.Tagger, up Uploader, cb Callbacks) *Controller {
	c := &Controller{
		tagger:    tg,
		uploader:  up,
		callbacks: cb,
		topK:      tagger.DefaultTopK,
	}
	c.resetLocked()
	return c
}

// State returns the current operation state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetTitle updates the draft title
func (c *Controller) SetTitle(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.title = title
}

// Title returns the draft title
func (c *Controller) Title() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.title
}

// SetDescription updates the draft description
func (c *Controller) SetDescription(description string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.description = description
}

// Description returns the draft description
func (c *Controller) Description() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.description
}

// SetUploadDate updates the draft upload date
func (c *Controller) SetUploadDate(date time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploadDate = date
}

// UploadDate returns the draft upload date
func (c *Controller) UploadDate() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uploadDate
}

// AttachFile sets the selected photo; nil removes the selection
func (c *Controller) AttachFile(file *Attachment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.file = file
}

// File returns the selected photo, or nil
func (c *Controller) File() *Attachment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.file
}

// ToggleTag adds the tag to the draft if absent, removes it if present
func (c *Controller) ToggleTag(tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tags[tag]; ok {
		delete(c.tags, tag)
	} else {
		c.tags[tag] = struct{}{}
	}
}

// HasTag reports whether the tag is currently selected
func (c *Controller) HasTag(tag string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.tags[tag]
	return ok
}

// Tags returns the selected tags in sorted order
func (c *Controller) Tags() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tagsLocked()
}

func (c *Controller) tagsLocked() []string {
	tags := make([]string, 0, len(c.tags))
	for tag := range c.tags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// GenerateTags asks the classifier for suggestions and unions them into the
// draft tag set. Requires a title or description; never removes existing tags.
func (c *Controller) GenerateTags(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		c.alert(AlertOperationPending)
		return ErrBusy
	}

	title := c.title
	description := c.description
	if strings.TrimSpace(title) == "" && strings.TrimSpace(description) == "" {
		c.mu.Unlock()
		c.alert(AlertMissingInput)
		return ErrMissingInput
	}

	if c.tagger == nil {
		c.mu.Unlock()
		c.alert(AlertGenerateFailed)
		return errors.New("no tagger configured")
	}

	c.state = StateGeneratingTags
	gen := c.generation
	c.mu.Unlock()

	suggestions, err := c.tagger.SuggestTags(ctx, title, description, c.topK)

	c.mu.Lock()
	c.state = StateIdle
	// The draft was reset while the request was in flight. The results
	// belong to a draft that no longer exists, so they are dropped.
	if c.generation != gen {
		c.mu.Unlock()
		if err != nil {
			utils.Log.Error("Tag generation failed after draft reset: %v", err)
			return err
		}
		return nil
	}
	if err != nil {
		c.mu.Unlock()
		utils.Log.Error("Tag generation failed: %v", err)
		c.alert(AlertGenerateFailed)
		return err
	}

	for _, s := range suggestions {
		if s.Tag != "" {
			c.tags[s.Tag] = struct{}{}
		}
	}
	c.mu.Unlock()

	return nil
}

// Submit uploads the draft. On success the draft is reset and OnSuccess
// receives the created record; on failure the draft is kept for retry.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		c.alert(AlertOperationPending)
		return ErrBusy
	}
	c.state = StateUploading

	tags := c.tagsLocked()
	submission := Submission{
		Title:       c.title,
		Description: c.description,
		UploadDate:  c.uploadDate,
		Tags:        tags,
		TagsInput:   strings.Join(tags, " "),
		File:        c.file,
	}
	c.mu.Unlock()

	resp, err := c.uploader.Upload(ctx, submission)

	c.mu.Lock()
	c.state = StateIdle
	if err != nil {
		c.mu.Unlock()
		utils.Log.Error("Memory upload failed: %v", err)
		c.alert(AlertUploadFailed)
		return err
	}

	c.resetLocked()
	c.mu.Unlock()

	if c.callbacks.OnSuccess != nil {
		c.callbacks.OnSuccess(SubmitResult{
			Title:       submission.Title,
			Description: submission.Description,
			UploadDate:  submission.UploadDate,
			Tags:        submission.TagsInput,
			TagList:     submission.Tags,
			Media:       resp.Media,
			Memory:      resp.Memory,
		})
	}
	if c.callbacks.OnClose != nil {
		c.callbacks.OnClose()
	}

	return nil
}

// Close resets the draft and signals dismissal; safe to call at any time
func (c *Controller) Close() {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()

	if c.callbacks.OnClose != nil {
		c.callbacks.OnClose()
	}
}

// resetLocked restores the draft to its default shape and advances the draft
// generation so in-flight operations drop their stale results. Caller holds
// the lock.
func (c *Controller) resetLocked() {
	c.generation++
	c.title = ""
	c.description = ""
	c.uploadDate = time.Now()
	c.tags = make(map[string]struct{})
	c.file = nil
}

func (c *Controller) alert(message string) {
	if c.callbacks.OnAlert != nil {
		c.callbacks.OnAlert(message)
	}
}
