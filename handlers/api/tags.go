package api

import (
	"errors"

	"memoryshare/config"
	"memoryshare/models"
	"memoryshare/tagger"
	"memoryshare/utils"

	"github.com/gofiber/fiber/v2"
)

// TagsHandler proxies tag suggestion requests to the configured classifier
type TagsHandler struct {
	config *config.Config
	tagger tagger.Tagger
}

// NewTagsHandler creates a new tags handler
func NewTagsHandler(cfg *config.Config, tg tagger.Tagger) *TagsHandler {
	return &TagsHandler{
		config: cfg,
		tagger: tg,
	}
}

// SuggestRequest is the JSON body accepted by the suggest-tags endpoint
type SuggestRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TopK        int    `json:"top_k"`
}

// HandleSuggestTags returns classifier predictions for a draft memory
func (h *TagsHandler) HandleSuggestTags(c *fiber.Ctx) error {
	localizer := GetRequestLocalizer(c)

	if h.tagger == nil {
		return utils.NotFoundError(utils.T(localizer, "error_tagger_disabled"), nil)
	}

	var req SuggestRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestError(utils.T(localizer, "error_invalid_form"), err)
	}

	topK := req.TopK
	if topK <= 0 || topK > 20 {
		topK = h.config.Tagger.TopK
	}

	suggestions, err := h.tagger.SuggestTags(c.Context(), req.Title, req.Description, topK)
	if err != nil {
		if errors.Is(err, tagger.ErrEmptyInput) {
			return utils.BadRequestError(utils.T(localizer, "error_tag_input_required"), err)
		}
		return utils.BadGatewayError(utils.T(localizer, "error_tag_service"), err)
	}

	if suggestions == nil {
		suggestions = []models.TagSuggestion{}
	}
	return c.JSON(suggestions)
}
