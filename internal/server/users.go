package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nomenklatur/openmusic/internal/fault"
	"go.uber.org/zap"
)

type userPayload struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Fullname string `json:"fullname" binding:"required"`
}

type loginPayload struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshPayload struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (h *httpHandler) handlePostUser(c *gin.Context) {
	var payload userPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadPayload(c)
		return
	}

	userID, err := h.users.Register(c.Request.Context(), payload.Username, payload.Password, payload.Fullname)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, gin.H{"userId": userID})
}

func (h *httpHandler) handlePostAuthentication(c *gin.Context) {
	var payload loginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadPayload(c)
		return
	}

	userID, err := h.users.VerifyCredential(c.Request.Context(), payload.Username, payload.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	accessToken, err := h.tokens.IssueAccessToken(userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	refreshToken, err := h.tokens.IssueRefreshToken(userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.sessions.AddRefreshToken(c.Request.Context(), refreshToken); err != nil {
		h.respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, gin.H{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
	})
}

func (h *httpHandler) handlePutAuthentication(c *gin.Context) {
	var payload refreshPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadPayload(c)
		return
	}

	userID, err := h.tokens.ValidateRefreshToken(payload.RefreshToken)
	if err != nil {
		h.logger.Warn("refresh token validation failed", zap.Error(err))
		h.respondError(c, fault.Invariant("refresh token is not valid"))
		return
	}
	if err := h.sessions.VerifyRefreshToken(c.Request.Context(), payload.RefreshToken); err != nil {
		h.respondError(c, err)
		return
	}

	accessToken, err := h.tokens.IssueAccessToken(userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"accessToken": accessToken})
}

func (h *httpHandler) handleDeleteAuthentication(c *gin.Context) {
	var payload refreshPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadPayload(c)
		return
	}

	if _, err := h.tokens.ValidateRefreshToken(payload.RefreshToken); err != nil {
		h.logger.Warn("refresh token validation failed", zap.Error(err))
		h.respondError(c, fault.Invariant("refresh token is not valid"))
		return
	}
	if err := h.sessions.DeleteRefreshToken(c.Request.Context(), payload.RefreshToken); err != nil {
		h.respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "refresh token deleted")
}
