package api

import (
	"memoryshare/config"
	"memoryshare/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// GetRequestLocalizer returns the localizer set by the locale middleware,
// falling back to the default localizer
func GetRequestLocalizer(c *fiber.Ctx) *i18n.Localizer {
	if localizer, ok := c.Locals("localizer").(*i18n.Localizer); ok && localizer != nil {
		return localizer
	}
	return utils.Localizer
}

// NewErrorHandler returns the app-wide Fiber error handler. Application
// errors keep their status code; bodies rejected by the request body limit
// are reported with the configured maximum size.
func NewErrorHandler(cfg *config.Config) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if e, ok := err.(*fiber.Error); ok && e.Code == fiber.StatusRequestEntityTooLarge {
			localizer := GetRequestLocalizer(c)
			err = utils.PayloadTooLargeError(utils.TWithData(localizer, "error_file_too_large", map[string]interface{}{
				"MaxMB": cfg.Upload.MaxSizeMB,
			}), e)
		}

		code := fiber.StatusInternalServerError
		if appErr, ok := err.(*utils.AppError); ok {
			code = appErr.Code
			utils.Log.Error("Application error: %v", appErr)
		} else if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
