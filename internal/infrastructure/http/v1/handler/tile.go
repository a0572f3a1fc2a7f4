package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/quadtiles/internal/entity"
	"github.com/jaennil/guide_helper/backend/quadtiles/internal/infrastructure/http/v1/dto"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/quadkey"
)

const (
	// satellite tiles are jpeg bytes but share the same content type
	tileContentType  = "image/webp"
	tileCacheControl = "public, max-age=31536000"
)

func (h *Handler) Tile(c *gin.Context) {
	l := requestLogger(c)

	var q dto.TileQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.RespondWithJSON(c, http.StatusBadRequest, "invalid query", nil)
		return
	}
	if err := h.validate.Struct(q); err != nil {
		l.Warn("invalid tile query", "quad_key", q.QuadKey, "type", q.Type, "error", err)
		h.RespondWithJSON(c, http.StatusBadRequest, "quadKey must be a quadkey and type one of os, sat", nil)
		return
	}

	kind, err := entity.ParseKind(q.Type)
	if err != nil {
		h.RespondWithJSON(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	tile, err := h.tileUseCase.GetTile(c.Request.Context(), q.QuadKey, kind)
	if err != nil {
		var qkErr *quadkey.InvalidQuadKeyError
		switch {
		case errors.As(err, &qkErr), errors.Is(err, entity.ErrUnknownKind):
			h.RespondWithJSON(c, http.StatusBadRequest, err.Error(), nil)
		case errors.Is(err, context.DeadlineExceeded) && c.Request.Context().Err() != nil:
			// the timeout middleware answers
			l.Warn("tile request timed out", "quad_key", q.QuadKey, "type", q.Type)
		default:
			l.Error("failed to get tile", "quad_key", q.QuadKey, "type", q.Type, "error", err)
			h.RespondWithInternalServerError(c)
		}
		return
	}

	c.Header("Content-Length", strconv.Itoa(len(tile.Data)))
	c.Header("Cache-Control", tileCacheControl)
	c.Header("X-Tile-Source", tile.Source)
	c.Data(http.StatusOK, tileContentType, tile.Data)
}
