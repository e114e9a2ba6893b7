package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/dkeye/Talk/internal/app"
	"github.com/dkeye/Talk/internal/auth"
	"github.com/dkeye/Talk/internal/domain"
	"github.com/dkeye/Talk/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// UserStore is the user side of persistence the REST handlers touch directly.
type UserStore interface {
	CreateUser(ctx context.Context, u domain.User) error
	FindUserByEmail(ctx context.Context, email string) (domain.User, error)
	SearchUsers(ctx context.Context, query string, exclude domain.UserID) ([]domain.User, error)
	UpdateWallet(ctx context.Context, id domain.UserID, wallet string) (domain.User, error)
}

type handlers struct {
	Deps
}

// fail maps domain and storage errors onto HTTP statuses.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrEmailTaken), errors.Is(err, store.ErrNameTaken), errors.Is(err, store.ErrWalletTaken):
		status = http.StatusConflict
	case errors.Is(err, app.ErrNotAdmin):
		status = http.StatusForbidden
	case errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, app.ErrInvalidMessage),
		errors.Is(err, app.ErrSelfChat),
		errors.Is(err, app.ErrNotGroup),
		errors.Is(err, app.ErrGroupTooSmall),
		errors.Is(err, domain.ErrUsernameEmpty),
		errors.Is(err, domain.ErrUsernameTooLong):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
