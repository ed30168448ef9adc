package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/nomenklatur/openmusic/internal/auth"
	"github.com/nomenklatur/openmusic/internal/catalog"
	"github.com/nomenklatur/openmusic/internal/exports"
	"github.com/nomenklatur/openmusic/internal/fault"
	"github.com/nomenklatur/openmusic/internal/playlists"
	"github.com/nomenklatur/openmusic/internal/storage"
	"github.com/nomenklatur/openmusic/internal/users"
	"go.uber.org/zap"
)

const (
	userIDContextKey = "openmusic_user_id"
	uploadRoutePath  = "/upload/images"
)

var (
	errMissingCatalogService   = errors.New("catalog service dependency required")
	errMissingPlaylistsService = errors.New("playlists service dependency required")
	errMissingUsersService     = errors.New("users service dependency required")
	errMissingExportsService   = errors.New("exports service dependency required")
	errMissingSessionStore     = errors.New("session store dependency required")
	errMissingTokenManager     = errors.New("token manager dependency required")
	errMissingStorage          = errors.New("file storage dependency required")
	errInvalidAuthorization    = errors.New("authorization header missing or invalid")
)

// TokenManager issues and validates the access/refresh token pair.
type TokenManager interface {
	IssueAccessToken(userID string) (string, error)
	IssueRefreshToken(userID string) (string, error)
	ValidateAccessToken(token string) (string, error)
	ValidateRefreshToken(token string) (string, error)
}

// Dependencies wires the services behind the HTTP surface.
type Dependencies struct {
	Catalog       *catalog.Service
	Playlists     *playlists.Service
	Users         *users.Service
	Exports       *exports.Service
	Sessions      *auth.SessionStore
	Tokens        TokenManager
	Storage       *storage.FileStorage
	UploadBaseURL string
	RateLimit     RateLimitConfig
	Logger        *zap.Logger
}

// NewHTTPHandler assembles the gin router for the full API surface.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Catalog == nil {
		return nil, errMissingCatalogService
	}
	if deps.Playlists == nil {
		return nil, errMissingPlaylistsService
	}
	if deps.Users == nil {
		return nil, errMissingUsersService
	}
	if deps.Exports == nil {
		return nil, errMissingExportsService
	}
	if deps.Sessions == nil {
		return nil, errMissingSessionStore
	}
	if deps.Tokens == nil {
		return nil, errMissingTokenManager
	}
	if deps.Storage == nil {
		return nil, errMissingStorage
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	router.Use(rateLimitMiddleware(deps.RateLimit))

	handler := &httpHandler{
		catalog:       deps.Catalog,
		playlists:     deps.Playlists,
		users:         deps.Users,
		exports:       deps.Exports,
		sessions:      deps.Sessions,
		tokens:        deps.Tokens,
		storage:       deps.Storage,
		uploadBaseURL: strings.TrimRight(deps.UploadBaseURL, "/"),
		logger:        logger,
	}

	router.POST("/albums", handler.handlePostAlbum)
	router.GET("/albums/:id", handler.handleGetAlbum)
	router.PUT("/albums/:id", handler.handlePutAlbum)
	router.DELETE("/albums/:id", handler.handleDeleteAlbum)
	router.POST("/albums/:id/covers", handler.handlePostAlbumCover)
	router.GET("/albums/:id/likes", handler.handleGetAlbumLikes)

	router.POST("/songs", handler.handlePostSong)
	router.GET("/songs", handler.handleGetSongs)
	router.GET("/songs/:id", handler.handleGetSong)
	router.PUT("/songs/:id", handler.handlePutSong)
	router.DELETE("/songs/:id", handler.handleDeleteSong)

	router.POST("/users", handler.handlePostUser)
	router.POST("/authentications", handler.handlePostAuthentication)
	router.PUT("/authentications", handler.handlePutAuthentication)
	router.DELETE("/authentications", handler.handleDeleteAuthentication)

	router.Static(uploadRoutePath, deps.Storage.Dir())

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.POST("/albums/:id/likes", handler.handlePostAlbumLike)
	protected.POST("/playlists", handler.handlePostPlaylist)
	protected.GET("/playlists", handler.handleGetPlaylists)
	protected.DELETE("/playlists/:id", handler.handleDeletePlaylist)
	protected.POST("/playlists/:id/songs", handler.handlePostPlaylistSong)
	protected.GET("/playlists/:id/songs", handler.handleGetPlaylistSongs)
	protected.DELETE("/playlists/:id/songs", handler.handleDeletePlaylistSong)
	protected.POST("/export/playlists/:id", handler.handlePostExportPlaylist)

	return router, nil
}

type httpHandler struct {
	catalog       *catalog.Service
	playlists     *playlists.Service
	users         *users.Service
	exports       *exports.Service
	sessions      *auth.SessionStore
	tokens        TokenManager
	storage       *storage.FileStorage
	uploadBaseURL string
	logger        *zap.Logger
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "fail", "message": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "fail", "message": errInvalidAuthorization.Error()})
		return
	}
	subject, err := h.tokens.ValidateAccessToken(token)
	if err != nil {
		h.logger.Warn("access token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "fail", "message": "unauthorized"})
		return
	}
	c.Set(userIDContextKey, subject)
	c.Next()
}

func respondData(c *gin.Context, status int, data gin.H) {
	c.JSON(status, gin.H{"status": "success", "data": data})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"status": "success", "message": message})
}

func respondBadPayload(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": "request payload is not valid"})
}

// respondError maps fault kinds to client-facing statuses. Everything else
// is logged and surfaced as an opaque server error.
func (h *httpHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, fault.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"status": "fail", "message": err.Error()})
	case errors.Is(err, fault.ErrInvariant):
		c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": err.Error()})
	case errors.Is(err, fault.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"status": "fail", "message": err.Error()})
	case errors.Is(err, fault.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"status": "fail", "message": err.Error()})
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "an internal server error occurred"})
	}
}
