package handlers

import (
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobscout/internal/models"
	"jobscout/internal/services"
)

type ResumeHandler struct {
	resumeService  services.ResumeService
	suggestService services.SuggestionService
	maxFileSize    int64
	defaultLimit   int
	logger         *zap.Logger
}

func NewResumeHandler(
	resumeService services.ResumeService,
	suggestService services.SuggestionService,
	maxFileSize int64,
	defaultLimit int,
	logger *zap.Logger,
) *ResumeHandler {
	return &ResumeHandler{
		resumeService:  resumeService,
		suggestService: suggestService,
		maxFileSize:    maxFileSize,
		defaultLimit:   defaultLimit,
		logger:         logger,
	}
}

// HandleProfile handles POST /resume/profile. The uploaded document is read
// into memory, consumed by the pipeline and discarded with the request.
func (h *ResumeHandler) HandleProfile(c *fiber.Ctx) error {
	doc, err := h.readResume(c)
	if doc == nil {
		return err
	}

	requestID := uuid.New().String()

	profile, err := h.resumeService.BuildProfile(c.UserContext(), *doc)
	if err != nil {
		h.logger.Warn("profile build failed",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return pipelineErrorResponse(c, err)
	}

	return c.JSON(models.ProfileResponse{
		RequestID: requestID,
		Profile:   *profile,
	})
}

// HandleSuggestions handles POST /resume/suggestions. Runs the full
// pipeline: extract, infer, search, score, rank.
func (h *ResumeHandler) HandleSuggestions(c *fiber.Ctx) error {
	doc, err := h.readResume(c)
	if doc == nil {
		return err
	}

	requestID := uuid.New().String()
	limit := c.QueryInt("limit", h.defaultLimit)

	profile, err := h.resumeService.BuildProfile(c.UserContext(), *doc)
	if err != nil {
		h.logger.Warn("profile build failed",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return pipelineErrorResponse(c, err)
	}

	suggestions, err := h.suggestService.Suggest(c.UserContext(), profile, limit)
	if err != nil {
		h.logger.Warn("suggestion computation failed",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return pipelineErrorResponse(c, err)
	}

	return c.JSON(models.SuggestionsResponse{
		RequestID:   requestID,
		Suggestions: suggestions,
	})
}

// readResume pulls the uploaded document out of the multipart form. On a
// bad upload it writes the error response itself and returns a nil document.
func (h *ResumeHandler) readResume(c *fiber.Ctx) (*models.RawDocument, error) {
	file, err := c.FormFile("resume")
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing 'resume' file field",
		})
	}

	if file.Size > h.maxFileSize {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "resume file too large",
		})
	}

	data, mediaType, err := readUpload(file)
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to read uploaded file",
		})
	}

	return &models.RawDocument{Data: data, MediaType: mediaType}, nil
}

func readUpload(file *multipart.FileHeader) ([]byte, string, error) {
	src, err := file.Open()
	if err != nil {
		return nil, "", err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, "", err
	}

	mediaType := file.Header.Get("Content-Type")
	if mediaType == "" {
		mediaType = "application/pdf"
	}

	return data, mediaType, nil
}
