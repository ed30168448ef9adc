package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nomenklatur/openmusic/internal/catalog"
)

type albumPayload struct {
	Name string `json:"name" binding:"required"`
	Year int    `json:"year" binding:"required"`
}

func (h *httpHandler) handlePostAlbum(c *gin.Context) {
	var payload albumPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadPayload(c)
		return
	}

	albumID, err := h.catalog.AddAlbum(c.Request.Context(), catalog.AlbumPayload{
		Name: payload.Name,
		Year: payload.Year,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, gin.H{"albumId": albumID})
}

func (h *httpHandler) handleGetAlbum(c *gin.Context) {
	album, err := h.catalog.GetAlbum(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	var coverURL *string
	if album.CoverURL != "" {
		coverURL = &album.CoverURL
	}
	respondData(c, http.StatusOK, gin.H{
		"album": gin.H{
			"id":       album.ID,
			"name":     album.Name,
			"year":     album.Year,
			"coverUrl": coverURL,
		},
	})
}

func (h *httpHandler) handlePutAlbum(c *gin.Context) {
	var payload albumPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadPayload(c)
		return
	}

	err := h.catalog.UpdateAlbum(c.Request.Context(), c.Param("id"), catalog.AlbumPayload{
		Name: payload.Name,
		Year: payload.Year,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "album updated")
}

func (h *httpHandler) handleDeleteAlbum(c *gin.Context) {
	if err := h.catalog.DeleteAlbum(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "album deleted")
}

func (h *httpHandler) handlePostAlbumLike(c *gin.Context) {
	albumID := c.Param("id")
	userID := c.GetString(userIDContextKey)

	if err := h.catalog.EnsureAlbumExists(c.Request.Context(), albumID); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.catalog.ToggleLike(c.Request.Context(), albumID, userID); err != nil {
		h.respondError(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, "album like toggled")
}

func (h *httpHandler) handleGetAlbumLikes(c *gin.Context) {
	result, err := h.catalog.LikeCount(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	if result.FromCache {
		c.Header("X-Data-Source", "cache")
	} else {
		c.Header("X-Data-Source", "database")
	}
	respondData(c, http.StatusOK, gin.H{"likes": result.Count})
}
