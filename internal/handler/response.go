package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"hotel-pms/internal/model"
	"hotel-pms/internal/util"
	"hotel-pms/pkg/apierror"
)

const maxBodyBytes = 1 << 20

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// errorMappings is checked in order; typed business errors keep their own
// message as details.
var errorMappings = []errorMapping{
	{model.ErrProtectedRecord, http.StatusConflict, "PROTECTED_RECORD", "Record is protected"},
	{model.ErrAlreadyArchived, http.StatusConflict, "ALREADY_ARCHIVED", "Record already archived"},
	{model.ErrAlreadyRestored, http.StatusConflict, "ALREADY_RESTORED", "Record already restored"},
	{model.ErrHoldConflict, http.StatusConflict, "HOLD_CONFLICT", "Legal hold already in requested state"},
	{model.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION", "Status change not allowed"},
	{model.ErrEquityClassInUse, http.StatusConflict, "CLASS_IN_USE", "Equity class still has shareholders"},
	{model.ErrEmptySelection, http.StatusBadRequest, "EMPTY_SELECTION", "No records selected"},
	{model.ErrRecordNotFound, http.StatusNotFound, "NOT_FOUND", "Record not found"},
	{model.ErrLeadNotFound, http.StatusNotFound, "NOT_FOUND", "Lead not found"},
	{model.ErrGuestNotFound, http.StatusNotFound, "NOT_FOUND", "Guest not found"},
	{model.ErrServiceRequestNotFound, http.StatusNotFound, "NOT_FOUND", "Service request not found"},
	{model.ErrShareholderNotFound, http.StatusNotFound, "NOT_FOUND", "Shareholder not found"},
	{model.ErrEquityClassNotFound, http.StatusNotFound, "NOT_FOUND", "Equity class not found"},
	{model.ErrSecurityNotFound, http.StatusNotFound, "NOT_FOUND", "Security not found"},
	{model.ErrTransactionNotFound, http.StatusNotFound, "NOT_FOUND", "Transaction not found"},
	{model.ErrUserNotFound, http.StatusNotFound, "NOT_FOUND", "User not found"},
	{model.ErrUserAlreadyExists, http.StatusConflict, "ALREADY_EXISTS", "User already exists"},
	{model.ErrCannotDeleteSelf, http.StatusConflict, "CANNOT_DELETE_SELF", "Cannot delete own account"},
	{model.ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid credentials"},
	{model.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required"},
	{model.ErrTokenNotFound, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token"},
	{model.ErrTokenExpired, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token"},
	{model.ErrForbidden, http.StatusForbidden, "FORBIDDEN", "Access denied"},
	{model.ErrInvalidInput, http.StatusBadRequest, "BAD_REQUEST", "Invalid input"},
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	} else if mapping, ok := lookupError(err); ok {
		status = mapping.status
		body.Code = mapping.code
		body.Message = mapping.message
		body.Details = err.Error()
	} else {
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}

func lookupError(err error) (errorMapping, bool) {
	for _, mapping := range errorMappings {
		if errors.Is(err, mapping.target) {
			return mapping, true
		}
	}
	return errorMapping{}, false
}

func badRequest(message string, details string) error {
	return apierror.New("BAD_REQUEST", message, details, http.StatusBadRequest)
}

// decodeJSON reads a bounded JSON body. An empty body leaves dst untouched when
// allowEmpty is set, for endpoints whose payload is optional.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return badRequest("invalid JSON body", err.Error())
	}
	return nil
}

func writeCSVHeaders(w http.ResponseWriter, name string, now time.Time) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-%s.csv"`, util.SafeFilename(name), now.UTC().Format("20060102-150405")))
	w.WriteHeader(http.StatusOK)
}
