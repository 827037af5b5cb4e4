package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/luggagehub/internal/capacity"
	conversationdomain "github.com/smallbiznis/luggagehub/internal/conversation/domain"
	listingdomain "github.com/smallbiznis/luggagehub/internal/listing/domain"
	requestdomain "github.com/smallbiznis/luggagehub/internal/request/domain"
	reservationdomain "github.com/smallbiznis/luggagehub/internal/reservation/domain"
	subscriptiondomain "github.com/smallbiznis/luggagehub/internal/subscription/domain"
	userdomain "github.com/smallbiznis/luggagehub/internal/user/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type        string            `json:"type"`
	Message     string            `json:"message"`
	Errors      []ValidationError `json:"errors,omitempty"`
	RemainingKg string            `json:"remaining_kg,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var capErr *capacity.InsufficientCapacityError
	if errors.As(err, &capErr) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   "kg_requested",
					Code:    capacity.ErrInsufficientCapacity.Error(),
					Message: capErr.Error(),
				},
			},
			RemainingKg: capacity.FormatKg(capErr.Remaining),
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isForbiddenError(err):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, listingdomain.ErrHasReservations):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "listing has reservations; deactivate it instead",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds the request logger a low-cardinality type and code.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isCapacityValidationError(err),
		isListingValidationError(err),
		isReservationValidationError(err),
		isSubscriptionValidationError(err),
		isRequestValidationError(err),
		isConversationValidationError(err),
		isUserValidationError(err):
		return true
	default:
		return false
	}
}

func isCapacityValidationError(err error) bool {
	switch {
	case errors.Is(err, capacity.ErrInvalidQuantity),
		errors.Is(err, capacity.ErrOwnCapacity),
		errors.Is(err, capacity.ErrListingUnavailable),
		errors.Is(err, capacity.ErrInvalidStatus):
		return true
	default:
		return false
	}
}

func isListingValidationError(err error) bool {
	switch {
	case errors.Is(err, listingdomain.ErrInvalidListing),
		errors.Is(err, listingdomain.ErrInvalidSeller),
		errors.Is(err, listingdomain.ErrInvalidTitle),
		errors.Is(err, listingdomain.ErrInvalidTotalKg),
		errors.Is(err, listingdomain.ErrInvalidPrice),
		errors.Is(err, listingdomain.ErrInvalidCurrency),
		errors.Is(err, listingdomain.ErrInvalidAvailableUntil),
		errors.Is(err, listingdomain.ErrInvalidCity):
		return true
	default:
		return false
	}
}

func isReservationValidationError(err error) bool {
	switch {
	case errors.Is(err, reservationdomain.ErrInvalidReservation),
		errors.Is(err, reservationdomain.ErrInvalidListing),
		errors.Is(err, reservationdomain.ErrInvalidBuyer),
		errors.Is(err, reservationdomain.ErrContactTooLong):
		return true
	default:
		return false
	}
}

func isSubscriptionValidationError(err error) bool {
	switch {
	case errors.Is(err, subscriptiondomain.ErrInvalidUser),
		errors.Is(err, subscriptiondomain.ErrInvalidListing),
		errors.Is(err, subscriptiondomain.ErrInvalidSubscription):
		return true
	default:
		return false
	}
}

func isRequestValidationError(err error) bool {
	switch {
	case errors.Is(err, requestdomain.ErrInvalidRequest),
		errors.Is(err, requestdomain.ErrInvalidUser),
		errors.Is(err, requestdomain.ErrInvalidType),
		errors.Is(err, requestdomain.ErrInvalidAmount),
		errors.Is(err, requestdomain.ErrInvalidCurrency),
		errors.Is(err, requestdomain.ErrInvalidDeadline),
		errors.Is(err, requestdomain.ErrInvalidStatus),
		errors.Is(err, requestdomain.ErrConditionsTooLong):
		return true
	default:
		return false
	}
}

func isConversationValidationError(err error) bool {
	switch {
	case errors.Is(err, conversationdomain.ErrInvalidUser),
		errors.Is(err, conversationdomain.ErrInvalidConversation),
		errors.Is(err, conversationdomain.ErrInvalidRequest),
		errors.Is(err, conversationdomain.ErrInvalidContent),
		errors.Is(err, conversationdomain.ErrMessageTooLong),
		errors.Is(err, conversationdomain.ErrOwnRequest):
		return true
	default:
		return false
	}
}

func isUserValidationError(err error) bool {
	switch {
	case errors.Is(err, userdomain.ErrInvalidUser),
		errors.Is(err, userdomain.ErrInvalidChatID),
		errors.Is(err, userdomain.ErrInvalidLinkToken):
		return true
	default:
		return false
	}
}

func isForbiddenError(err error) bool {
	switch {
	case errors.Is(err, ErrForbidden),
		errors.Is(err, listingdomain.ErrForbidden),
		errors.Is(err, reservationdomain.ErrForbidden),
		errors.Is(err, subscriptiondomain.ErrForbidden),
		errors.Is(err, requestdomain.ErrForbidden),
		errors.Is(err, conversationdomain.ErrForbidden):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, listingdomain.ErrListingNotFound),
		errors.Is(err, reservationdomain.ErrListingNotFound),
		errors.Is(err, reservationdomain.ErrReservationNotFound),
		errors.Is(err, subscriptiondomain.ErrListingNotFound),
		errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound),
		errors.Is(err, requestdomain.ErrRequestNotFound),
		errors.Is(err, conversationdomain.ErrRequestNotFound),
		errors.Is(err, conversationdomain.ErrConversationNotFound),
		errors.Is(err, userdomain.ErrUserNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case capacity.ErrInvalidQuantity.Error(), capacity.ErrInsufficientCapacity.Error():
		return "kg_requested"
	case capacity.ErrOwnCapacity.Error(), capacity.ErrListingUnavailable.Error():
		return "listing"
	case capacity.ErrInvalidStatus.Error():
		return "status"
	case reservationdomain.ErrContactTooLong.Error():
		return "contact_handle"
	case requestdomain.ErrConditionsTooLong.Error():
		return "conditions"
	case conversationdomain.ErrMessageTooLong.Error():
		return "content"
	case conversationdomain.ErrOwnRequest.Error():
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case capacity.ErrInvalidQuantity.Error():
		return "requested kilograms must be greater than zero with at most two decimal places"
	case capacity.ErrOwnCapacity.Error():
		return "you cannot reserve capacity on your own listing"
	case capacity.ErrListingUnavailable.Error():
		return "listing is inactive or expired"
	case capacity.ErrInvalidStatus.Error():
		return "status must be one of pending, reserved, cancelled"
	case reservationdomain.ErrContactTooLong.Error():
		return "contact handle or note is too long"
	case requestdomain.ErrConditionsTooLong.Error():
		return "conditions are too long"
	case conversationdomain.ErrMessageTooLong.Error():
		return "message is too long"
	case conversationdomain.ErrOwnRequest.Error():
		return "you cannot start a conversation about your own request"
	default:
		return "invalid value"
	}
}
