package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nomenklatur/openmusic/internal/catalog"
)

type songPayload struct {
	Title     string  `json:"title" binding:"required"`
	Year      int     `json:"year" binding:"required"`
	Performer string  `json:"performer" binding:"required"`
	Genre     string  `json:"genre" binding:"required"`
	Duration  *int    `json:"duration"`
	AlbumID   *string `json:"albumId"`
}

func (p songPayload) toServicePayload() catalog.SongPayload {
	return catalog.SongPayload{
		Title:     p.Title,
		Year:      p.Year,
		Performer: p.Performer,
		Genre:     p.Genre,
		Duration:  p.Duration,
		AlbumID:   p.AlbumID,
	}
}

func (h *httpHandler) handlePostSong(c *gin.Context) {
	var payload songPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadPayload(c)
		return
	}

	songID, err := h.catalog.AddSong(c.Request.Context(), payload.toServicePayload())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, gin.H{"songId": songID})
}

func (h *httpHandler) handleGetSongs(c *gin.Context) {
	songs, err := h.catalog.ListSongs(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	summaries := make([]gin.H, 0, len(songs))
	for _, song := range songs {
		summaries = append(summaries, gin.H{
			"id":        song.ID,
			"title":     song.Title,
			"performer": song.Performer,
		})
	}
	respondData(c, http.StatusOK, gin.H{"songs": summaries})
}

func (h *httpHandler) handleGetSong(c *gin.Context) {
	song, err := h.catalog.GetSong(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"song": gin.H{
			"id":        song.ID,
			"title":     song.Title,
			"year":      song.Year,
			"performer": song.Performer,
			"genre":     song.Genre,
			"duration":  song.Duration,
			"albumId":   song.AlbumID,
		},
	})
}

func (h *httpHandler) handlePutSong(c *gin.Context) {
	var payload songPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadPayload(c)
		return
	}

	if err := h.catalog.UpdateSong(c.Request.Context(), c.Param("id"), payload.toServicePayload()); err != nil {
		h.respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "song updated")
}

func (h *httpHandler) handleDeleteSong(c *gin.Context) {
	if err := h.catalog.DeleteSong(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "song deleted")
}
