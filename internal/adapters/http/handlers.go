package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"coedit/server/internal/app"
	"coedit/server/internal/domain"
)

// Store is the slice of the room store the HTTP surface needs. The
// membership-changing operation goes through the reconciler instead, so
// the deletion cascade has one owner.
type Store interface {
	FindByID(ctx context.Context, roomID domain.RoomID) (*domain.Room, error)
	FindByMemberEmail(ctx context.Context, email string) ([]*domain.Room, error)
	Insert(ctx context.Context, room *domain.Room) error
	Delete(ctx context.Context, roomID domain.RoomID) error
	CreateUser(ctx context.Context, user *domain.User) (bool, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	Store      Store
	Reconciler *app.Reconciler
	Cache      app.DocumentCache
	DB         Pinger
}

func (h *Handlers) Health(c *gin.Context) {
	if h.DB != nil {
		if err := h.DB.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) CreateUser(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		PhotoURL string `json:"photoURL"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body"})
		return
	}

	user, err := domain.NewUser(req.Username, req.Email, req.PhotoURL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	created, err := h.Store.CreateUser(c.Request.Context(), user)
	if err != nil {
		h.internalError(c, err)
		return
	}
	if !created {
		c.JSON(http.StatusOK, gin.H{"message": "user already exists"})
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handlers) CreateRoom(c *gin.Context) {
	var req struct {
		RoomID   string `json:"roomId"`
		Username string `json:"username"`
		Email    string `json:"email"`
		PhotoURL string `json:"photoURL"`
		Code     string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body"})
		return
	}

	creator, err := domain.NewIdentity(req.Username, req.Email, req.PhotoURL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if req.RoomID == "" {
		req.RoomID = uuid.NewString()
	}

	now := time.Now()
	room := &domain.Room{
		ID: domain.RoomID(req.RoomID),
		Members: []domain.Member{{
			Username: creator.Username,
			Email:    creator.Email,
			PhotoURL: creator.PhotoURL,
			JoinedAt: now,
		}},
		Code:         req.Code,
		LastModified: now,
	}

	if err := h.Store.Insert(c.Request.Context(), room); err != nil {
		if errors.Is(err, domain.ErrRoomExists) {
			c.JSON(http.StatusConflict, gin.H{"message": "room already exists"})
			return
		}
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

func (h *Handlers) RoomsByMember(c *gin.Context) {
	rooms, err := h.Store.FindByMemberEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

func (h *Handlers) RoomByID(c *gin.Context) {
	room, err := h.Store.FindByID(c.Request.Context(), domain.RoomID(c.Param("id")))
	if errors.Is(err, domain.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Room not found"})
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *Handlers) DeleteRoom(c *gin.Context) {
	roomID := domain.RoomID(c.Param("id"))
	err := h.Store.Delete(c.Request.Context(), roomID)
	if errors.Is(err, domain.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Room not found"})
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}
	h.dropCachedCode(c.Request.Context(), roomID)
	c.JSON(http.StatusOK, gin.H{"message": "Room deleted successfully"})
}

// RemoveMember is the explicit membership-removal path; removing the last
// member deletes the room entirely.
func (h *Handlers) RemoveMember(c *gin.Context) {
	roomID := domain.RoomID(c.Param("id"))
	outcome, err := h.Reconciler.RemoveMember(c.Request.Context(), roomID, c.Param("email"))
	if errors.Is(err, domain.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Room not found"})
		return
	}
	if errors.Is(err, domain.ErrMemberNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Member not found"})
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}
	if outcome == domain.RoomDeleted {
		h.dropCachedCode(c.Request.Context(), roomID)
	}
	c.JSON(http.StatusOK, gin.H{"outcome": outcome.String()})
}

func (h *Handlers) dropCachedCode(ctx context.Context, roomID domain.RoomID) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Invalidate(ctx, roomID); err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Str("room", string(roomID)).Msg("cache invalidate failed")
	}
}

func (h *Handlers) internalError(c *gin.Context, err error) {
	log.Error().Err(err).Str("module", "adapters.http").Msg("store operation failed")
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
}
