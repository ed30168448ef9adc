package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nomenklatur/openmusic/internal/fault"
)

const coverFormField = "cover"

func (h *httpHandler) handlePostAlbumCover(c *gin.Context) {
	fileHeader, err := c.FormFile(coverFormField)
	if err != nil {
		respondBadPayload(c)
		return
	}
	if !strings.HasPrefix(fileHeader.Header.Get("Content-Type"), "image/") {
		h.respondError(c, fault.Invariant("cover must be an image"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	storedName, err := h.storage.Save(file, fileHeader.Filename)
	if err != nil {
		h.respondError(c, err)
		return
	}

	coverURL := h.uploadBaseURL + uploadRoutePath + "/" + storedName
	if err := h.catalog.SetCoverURL(c.Request.Context(), c.Param("id"), coverURL); err != nil {
		h.respondError(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, "cover uploaded")
}
