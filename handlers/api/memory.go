package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"memoryshare/config"
	"memoryshare/mail"
	"memoryshare/models"
	"memoryshare/storage"
	"memoryshare/utils"

	"github.com/gofiber/fiber/v2"
)

// MemoryHandler handles memory upload and retrieval requests
type MemoryHandler struct {
	config        *config.Config
	memories      *storage.MemoryStore
	media         *storage.MediaStore
	dispatcher    *mail.Dispatcher
	notifications *NotificationHandler
}

// NewMemoryHandler creates a new memory handler
func NewMemoryHandler(cfg *config.Config, memories *storage.MemoryStore, media *storage.MediaStore, dispatcher *mail.Dispatcher, notifications *NotificationHandler) *MemoryHandler {
	return &MemoryHandler{
		config:        cfg,
		memories:      memories,
		media:         media,
		dispatcher:    dispatcher,
		notifications: notifications,
	}
}

// HandleAddMedia accepts the multipart upload of a new memory.
// Fields: text (title), description, repeated tags, tags_input (space-joined),
// optional upload_date (RFC3339), files (the photo).
func (h *MemoryHandler) HandleAddMedia(c *fiber.Ctx) error {
	localizer := GetRequestLocalizer(c)

	form, err := c.MultipartForm()
	if err != nil {
		return utils.BadRequestError(utils.T(localizer, "error_invalid_form"), err)
	}

	title := utils.SanitizeTitle(firstValue(form.Value["text"]))
	if title == "" {
		return utils.BadRequestError(utils.T(localizer, "error_title_required"), nil)
	}

	description := utils.SanitizeDescription(firstValue(form.Value["description"]))
	tags := mergeTags(form.Value["tags"], firstValue(form.Value["tags_input"]))

	uploadDate := time.Now()
	if raw := firstValue(form.Value["upload_date"]); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			uploadDate = parsed
		}
	}

	files := form.File["files"]
	if len(files) == 0 {
		return utils.BadRequestError(utils.T(localizer, "error_file_required"), nil)
	}
	fileHeader := files[0]

	file, err := fileHeader.Open()
	if err != nil {
		return utils.BadRequestError(utils.T(localizer, "error_invalid_form"), err)
	}
	data, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		return utils.InternalServerError(utils.T(localizer, "error_upload_failed"), err)
	}

	media, err := h.media.Save(fileHeader.Filename, data)
	if err != nil {
		return utils.InternalServerError(utils.T(localizer, "error_upload_failed"), err)
	}

	memory := &models.Memory{
		Title:       title,
		Description: description,
		UploadDate:  uploadDate,
		Tags:        tags,
		Media:       media,
	}

	if err := h.memories.Create(memory); err != nil {
		// Don't leave an orphaned blob behind
		if cleanupErr := h.media.Delete(media.Filename); cleanupErr != nil {
			utils.Log.Warn("Failed to clean up media %s: %v", media.Filename, cleanupErr)
		}
		return utils.InternalServerError(utils.T(localizer, "error_upload_failed"), err)
	}

	utils.Log.Info("Memory created: id=%s title=%q tags=%d media=%s", memory.ID, memory.Title, len(memory.Tags), media.Filename)

	h.notifications.NotifyNewMemory(memory)
	h.notifyByMail(memory)

	return c.JSON(models.UploadResponse{
		Media:  media.Filename,
		Memory: memory,
	})
}

// HandleListMemories returns all memories, optionally filtered by tag
func (h *MemoryHandler) HandleListMemories(c *fiber.Ctx) error {
	var (
		memories []*models.Memory
		err      error
	)

	if tag := c.Query("tag"); tag != "" {
		memories, err = h.memories.ListByTag(tag)
	} else {
		memories, err = h.memories.List()
	}
	if err != nil {
		return utils.InternalServerError("Failed to list memories", err)
	}

	if memories == nil {
		memories = []*models.Memory{}
	}
	return c.JSON(fiber.Map{
		"memories": memories,
		"count":    len(memories),
	})
}

// HandleGetMemory returns a single memory by ID
func (h *MemoryHandler) HandleGetMemory(c *fiber.Ctx) error {
	memory, err := h.memories.Get(c.Params("id"))
	if err != nil {
		if errors.Is(err, storage.ErrMemoryNotFound) {
			return utils.NotFoundError("Memory not found", err)
		}
		return utils.InternalServerError("Failed to load memory", err)
	}
	return c.JSON(memory)
}

// HandleGetMedia serves the stored photo for a memory
func (h *MemoryHandler) HandleGetMedia(c *fiber.Ctx) error {
	memory, err := h.memories.Get(c.Params("id"))
	if err != nil {
		if errors.Is(err, storage.ErrMemoryNotFound) {
			return utils.NotFoundError("Memory not found", err)
		}
		return utils.InternalServerError("Failed to load memory", err)
	}
	if memory.Media == nil {
		return utils.NotFoundError("Memory has no media", nil)
	}

	path, err := h.media.Path(memory.Media.Filename)
	if err != nil {
		return utils.NotFoundError("Media file not found", err)
	}

	c.Set("Content-Type", memory.Media.ContentType)
	c.Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", memory.Media.OriginalName))
	return c.SendFile(path)
}

// HandleDeleteMemory removes a memory, its tag index entries and its media
func (h *MemoryHandler) HandleDeleteMemory(c *fiber.Ctx) error {
	memory, err := h.memories.Delete(c.Params("id"))
	if err != nil {
		if errors.Is(err, storage.ErrMemoryNotFound) {
			return utils.NotFoundError("Memory not found", err)
		}
		return utils.InternalServerError("Failed to delete memory", err)
	}

	if memory.Media != nil {
		if err := h.media.Delete(memory.Media.Filename); err != nil {
			utils.Log.Warn("Failed to delete media for memory %s: %v", memory.ID, err)
		}
	}

	utils.Log.Info("Memory deleted: id=%s", memory.ID)
	h.notifications.NotifyMemoryDeleted(memory.ID)
	return c.JSON(fiber.Map{"success": true})
}

// HandleListTags returns all known tags with their memory counts
func (h *MemoryHandler) HandleListTags(c *fiber.Ctx) error {
	counts, err := h.memories.Tags()
	if err != nil {
		return utils.InternalServerError("Failed to list tags", err)
	}
	return c.JSON(fiber.Map{"tags": counts})
}

// notifyByMail sends the new-memory notification. Delivery is best-effort:
// the result is logged and never fails the upload.
func (h *MemoryHandler) notifyByMail(memory *models.Memory) {
	if h.dispatcher == nil || !h.config.Mail.Enabled {
		return
	}

	logger := utils.Log.WithField("memory", memory.ID)

	body, err := mail.NotificationBody(memory)
	if err != nil {
		logger.Error("Failed to render mail notification: %v", err)
		return
	}

	go func() {
		result := h.dispatcher.Dispatch(context.Background(), mail.Message{
			To:      h.config.Mail.Recipients,
			Subject: mail.NotificationSubject(memory),
			HTML:    body,
		})
		if !result.Delivered() {
			logger.Warn("Notification mail not delivered: %v", result.Err)
		}
	}()
}

// firstValue returns the first value of a multipart field, or ""
func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// mergeTags combines the repeated tags fields with the space-joined
// tags_input field, trimming and deduplicating
func mergeTags(repeated []string, joined string) []string {
	seen := make(map[string]struct{})
	var tags []string

	add := func(raw string) {
		tag := utils.SanitizeTag(raw)
		if tag == "" {
			return
		}
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	for _, tag := range repeated {
		add(tag)
	}
	for _, tag := range strings.Fields(joined) {
		add(tag)
	}

	return tags
}
