package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/devsync/teamchat-api/internal/constants"
	apierrors "github.com/devsync/teamchat-api/internal/errors"
	"github.com/devsync/teamchat-api/internal/middleware"
	"github.com/devsync/teamchat-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// statusForKind maps an error kind to its HTTP status and error code.
func statusForKind(kind services.ErrorKind) (int, string) {
	switch kind {
	case services.KindValidation:
		return http.StatusBadRequest, apierrors.ErrCodeInvalidInput
	case services.KindCredentialMissing:
		return http.StatusUnprocessableEntity, apierrors.ErrCodeCredentialMissing
	case services.KindProviderUnauthorized:
		return http.StatusUnauthorized, apierrors.ErrCodeProviderUnauthorized
	case services.KindProviderNotFound:
		return http.StatusNotFound, apierrors.ErrCodeProviderNotFound
	case services.KindProviderRateLimited:
		return http.StatusTooManyRequests, apierrors.ErrCodeRateLimited
	case services.KindProviderOther:
		return http.StatusBadGateway, apierrors.ErrCodeProviderFailure
	default:
		return http.StatusInternalServerError, apierrors.ErrCodeInternalError
	}
}

// respondError writes err as an APIError. Sentinels with a fixed meaning
// are matched first; everything else goes through the error kind.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrChatNotFound),
		errors.Is(err, services.ErrPhaseNotFound),
		errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrNoRepository):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrNotGroupAdmin),
		errors.Is(err, services.ErrNotChatMember),
		errors.Is(err, services.ErrCannotRemoveAdmin):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrAlreadyMember):
		apierrors.RespondWithError(c, http.StatusConflict, apierrors.NewAPIError(apierrors.ErrCodeAlreadyExists, err.Error()))
	case errors.Is(err, services.ErrPhaseHasOpenTasks):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrNotGroupChat):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.RespondWithError(c, http.StatusUnauthorized, apierrors.NewAPIError(apierrors.ErrCodeInvalidCredentials, err.Error()))
	case errors.Is(err, services.ErrAIServiceNotConfigured),
		errors.Is(err, services.ErrMeetingsNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	case errors.Is(err, services.ErrAINoTasksGenerated):
		apierrors.UnprocessableEntity(c, apierrors.ErrCodeInvalidInput, err.Error())
	default:
		respondKind(c, err)
	}
}

func respondKind(c *gin.Context, err error) {
	kind := services.KindOf(err)
	status, code := statusForKind(kind)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("kind", string(kind)).
			Str("request_id", c.GetString(constants.ContextKeyRequestID)).
			Msg("request failed")
	}

	message := err.Error()
	if kind == services.KindPersistence {
		message = "Internal server error"
	}

	var perr *services.ProvisionError
	if errors.As(err, &perr) {
		details := gin.H{"step": perr.Step, "last_completed": perr.LastCompleted, "kind": perr.Kind}
		if perr.Repository != "" {
			details["repository"] = perr.Repository
		}
		apierrors.RespondWithError(c, status, apierrors.NewAPIErrorWithDetails(code, message, details))
		return
	}
	apierrors.RespondWithError(c, status, apierrors.NewAPIErrorWithDetails(code, message, gin.H{"kind": kind}))
}

func paramID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func currentUser(c *gin.Context) (uint64, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
	}
	return userID, ok
}
