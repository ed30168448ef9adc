package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type playlistPayload struct {
	Name string `json:"name" binding:"required"`
}

type playlistSongPayload struct {
	SongID string `json:"songId" binding:"required"`
}

type exportPayload struct {
	TargetEmail string `json:"targetEmail" binding:"required"`
}

func (h *httpHandler) handlePostPlaylist(c *gin.Context) {
	var payload playlistPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadPayload(c)
		return
	}

	playlistID, err := h.playlists.AddPlaylist(c.Request.Context(), payload.Name, c.GetString(userIDContextKey))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, gin.H{"playlistId": playlistID})
}

func (h *httpHandler) handleGetPlaylists(c *gin.Context) {
	summaries, err := h.playlists.ListByOwner(c.Request.Context(), c.GetString(userIDContextKey))
	if err != nil {
		h.respondError(c, err)
		return
	}

	listing := make([]gin.H, 0, len(summaries))
	for _, playlist := range summaries {
		listing = append(listing, gin.H{
			"id":       playlist.ID,
			"name":     playlist.Name,
			"username": playlist.Username,
		})
	}
	respondData(c, http.StatusOK, gin.H{"playlists": listing})
}

func (h *httpHandler) handleDeletePlaylist(c *gin.Context) {
	playlistID := c.Param("id")
	if err := h.playlists.VerifyOwner(c.Request.Context(), playlistID, c.GetString(userIDContextKey)); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.playlists.DeletePlaylist(c.Request.Context(), playlistID); err != nil {
		h.respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "playlist deleted")
}

func (h *httpHandler) handlePostPlaylistSong(c *gin.Context) {
	var payload playlistSongPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadPayload(c)
		return
	}

	playlistID := c.Param("id")
	if err := h.playlists.VerifyOwner(c.Request.Context(), playlistID, c.GetString(userIDContextKey)); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.playlists.AddSong(c.Request.Context(), playlistID, payload.SongID); err != nil {
		h.respondError(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, "song added to playlist")
}

func (h *httpHandler) handleGetPlaylistSongs(c *gin.Context) {
	playlistID := c.Param("id")
	if err := h.playlists.VerifyOwner(c.Request.Context(), playlistID, c.GetString(userIDContextKey)); err != nil {
		h.respondError(c, err)
		return
	}

	playlist, err := h.playlists.GetPlaylist(c.Request.Context(), playlistID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	entries, err := h.playlists.ListSongs(c.Request.Context(), playlistID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	songs := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		songs = append(songs, gin.H{
			"id":        entry.ID,
			"title":     entry.Title,
			"performer": entry.Performer,
		})
	}
	respondData(c, http.StatusOK, gin.H{
		"playlist": gin.H{
			"id":       playlist.ID,
			"name":     playlist.Name,
			"username": playlist.Username,
			"songs":    songs,
		},
	})
}

func (h *httpHandler) handleDeletePlaylistSong(c *gin.Context) {
	var payload playlistSongPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadPayload(c)
		return
	}

	playlistID := c.Param("id")
	if err := h.playlists.VerifyOwner(c.Request.Context(), playlistID, c.GetString(userIDContextKey)); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.playlists.RemoveSong(c.Request.Context(), playlistID, payload.SongID); err != nil {
		h.respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "song removed from playlist")
}

func (h *httpHandler) handlePostExportPlaylist(c *gin.Context) {
	var payload exportPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadPayload(c)
		return
	}

	err := h.exports.RequestExport(c.Request.Context(), c.Param("id"), c.GetString(userIDContextKey), payload.TargetEmail)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, "your request is being processed")
}
