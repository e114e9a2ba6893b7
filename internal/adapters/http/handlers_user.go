package http

import (
	"errors"
	"net/http"

	"github.com/dkeye/Talk/internal/auth"
	"github.com/dkeye/Talk/internal/domain"
	"github.com/dkeye/Talk/internal/store"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type registerRequest struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required"`
	WalletAddress string `json:"walletAddress" binding:"required,eth_addr"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type walletRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required,eth_addr"`
}

func (h *handlers) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	u, err := domain.NewUser(req.Name, req.Email, hash, req.WalletAddress)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.Users.CreateUser(c.Request.Context(), *u); err != nil {
		fail(c, err)
		return
	}
	token, err := h.Tokens.Issue(u.ID)
	if err != nil {
		fail(c, err)
		return
	}
	h.remember(c, u.ID)
	log.Info().Str("module", "adapters.http").Str("user", string(u.ID)).Msg("registered")
	c.JSON(http.StatusCreated, gin.H{
		"message": "User Registered Successfully",
		"user":    u,
		"token":   token,
	})
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := h.Users.FindUserByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User Not Found"})
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}
	token, err := h.Tokens.Issue(u.ID)
	if err != nil {
		fail(c, err)
		return
	}
	h.remember(c, u.ID)
	c.JSON(http.StatusOK, gin.H{
		"message":        "User logged in successfully",
		"user":           u,
		"requiresWallet": u.WalletAddress == "",
		"token":          token,
	})
}

func (h *handlers) logout(c *gin.Context) {
	s := sessions.Default(c)
	s.Clear()
	if err := s.Save(); err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Msg("session save")
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) fetchUsers(c *gin.Context) {
	users, err := h.Users.SearchUsers(c.Request.Context(), c.Query("search"), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *handlers) updateWallet(c *gin.Context) {
	var req walletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := h.Users.UpdateWallet(c.Request.Context(), currentUser(c), req.WalletAddress)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Wallet address updated successfully",
		"user":    u,
	})
}

// remember pins the user to the cookie session so the WebSocket upgrade can be identified without a token.
func (h *handlers) remember(c *gin.Context, id domain.UserID) {
	s := sessions.Default(c)
	s.Set(sessionUserKey, string(id))
	if err := s.Save(); err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Msg("session save")
	}
}
