package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"jobscout/internal/models"
	"jobscout/internal/services"
)

type SearchHandler struct {
	suggestService services.SuggestionService
	defaultLimit   int
	logger         *zap.Logger
}

func NewSearchHandler(suggestService services.SuggestionService, defaultLimit int, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		suggestService: suggestService,
		defaultLimit:   defaultLimit,
		logger:         logger,
	}
}

// HandleSearch handles GET /jobs/search. The free-text query goes through
// the same suggestion engine as the resume path.
func (h *SearchHandler) HandleSearch(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "query parameter 'q' is required",
		})
	}

	filters := models.SearchFilters{
		Location: c.Query("location"),
		RadiusKM: c.QueryInt("radius"),
		Category: c.Query("category"),
	}
	limit := c.QueryInt("limit", h.defaultLimit)

	suggestions, err := h.suggestService.SuggestFromQuery(c.UserContext(), query, filters, limit)
	if err != nil {
		h.logger.Warn("ad-hoc search failed",
			zap.String("query", query),
			zap.Error(err),
		)
		return pipelineErrorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"query":       query,
		"suggestions": suggestions,
	})
}
