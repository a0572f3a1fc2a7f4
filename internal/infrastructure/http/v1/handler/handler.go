package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jaennil/guide_helper/backend/quadtiles/internal/usecase"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/logger"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/quadkey"
)

const (
	internalServerErrorText = "the server encountered an error and could not process your request"
)

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type Handler struct {
	validate    *validator.Validate
	tileUseCase usecase.TileGetter
}

func NewHandler(v *validator.Validate, uc usecase.TileGetter) *Handler {
	return &Handler{
		validate:    v,
		tileUseCase: uc,
	}
}

// NewValidator returns a validator that knows the "quadkey" tag.
func NewValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("quadkey", func(fl validator.FieldLevel) bool {
		return quadkey.Validate(fl.Field().String()) == nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (h *Handler) Healthz(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (h *Handler) RespondWithInternalServerError(c *gin.Context) {
	h.RespondWithJSON(c, http.StatusInternalServerError, internalServerErrorText, nil)
}

func (h *Handler) RespondWithJSON(c *gin.Context, code int, message string, data any) {
	success := code < 400

	r := response{
		Success: success,
		Message: message,
		Data:    data,
	}

	c.JSON(code, r)
}

func requestLogger(c *gin.Context) logger.Logger {
	if v, ok := c.Get("logger"); ok {
		if l, ok := v.(logger.Logger); ok {
			return l
		}
	}
	return logger.FromContext(c.Request.Context())
}
