package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/task-manager/internal/constants"
	apierrors "github.com/yukikurage/task-manager/internal/errors"
	"github.com/yukikurage/task-manager/internal/logging"
	"github.com/yukikurage/task-manager/internal/middleware"
	"github.com/yukikurage/task-manager/internal/models"
	"github.com/yukikurage/task-manager/internal/services"
)

var registerValidatorsOnce sync.Once

// registerValidators adds the objectid binding tag to gin's validator.
func registerValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			return models.IsValidID(fl.Field().String())
		})
	})
}

// respondServiceError maps service failures onto HTTP responses. It is the
// only place service errors are translated.
func respondServiceError(c *gin.Context, err error) {
	var (
		validationErr *services.ValidationError
		notFoundErr   *services.NotFoundError
		authErr       *services.AuthError
		storeErr      *services.StoreError
	)

	switch {
	case errors.As(err, &validationErr):
		apierrors.ValidationFailed(c, validationErr.Field, validationErr.Error())
	case errors.As(err, &notFoundErr):
		apierrors.NotFound(c, notFoundErr.Error())
	case errors.As(err, &authErr):
		apierrors.Unauthorized(c, authErr.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.RespondWithError(c, http.StatusUnauthorized, apierrors.ErrInvalidCredentials)
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.ValidationFailed(c, "password", fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.As(err, &storeErr):
		logFailure(c, err)
		respondInternal(c, "Storage operation failed", storeErr.Op)
	default:
		logFailure(c, err)
		respondInternal(c, "Internal server error", "")
	}
}

// respondInternal attaches the failing operation outside release mode only.
func respondInternal(c *gin.Context, message, op string) {
	if op == "" || gin.Mode() == gin.ReleaseMode {
		apierrors.InternalError(c, message)
		return
	}
	apierrors.InternalErrorWithDetails(c, message, gin.H{"operation": op})
}

func logFailure(c *gin.Context, err error) {
	_ = c.Error(err)
	logging.Logger.WithField("request_id", middleware.GetRequestID(c)).Errorf("request failed: %v", err)
}

// respondBindingError converts gin binding failures into a 400 response.
func respondBindingError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		apierrors.RespondWithError(c, http.StatusBadRequest, apierrors.ErrInvalidInput)
		return
	}

	fields := make([]gin.H, 0, len(validationErrs))
	messages := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		field := jsonFieldName(fe.Field())
		fields = append(fields, gin.H{"field": field, "rule": fe.Tag()})
		messages = append(messages, describeRule(field, fe.Tag()))
	}
	apierrors.BadRequestWithDetails(c, strings.Join(messages, "; "), fields)
}

func describeRule(field, tag string) string {
	switch tag {
	case "required":
		return field + " is required"
	case "objectid":
		return "invalid " + field + " ID"
	case "email":
		return field + " must be a valid email address"
	default:
		return field + " is invalid"
	}
}

// jsonFieldName lower-cases the first letter of a struct field name, which
// matches the request structs' json tags.
func jsonFieldName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}
