package handlers

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/nicuwatch/nicudash/internal/pkg/errors"
	"github.com/nicuwatch/nicudash/internal/pkg/logger"
	"github.com/nicuwatch/nicudash/internal/pkg/utils"
	"github.com/nicuwatch/nicudash/internal/pkg/validator"
)

const maxBodyBytes = 64 << 10

// decodeJSON decodes the request body into dst.
// Fields whose JSON type does not fit dst are left at their zero value and returned as
// violations, one per top-level field, so callers report them alongside their own checks.
// A missing or malformed body is a bad request.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) ([]validator.ValidationError, *errors.AppError) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.BadRequest("Request body is too large")
		}
		return nil, errors.BadRequest("Invalid request body")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.BadRequest("Request body is required")
	}

	err = json.Unmarshal(body, dst)
	if err == nil {
		return nil, nil
	}
	var typeErr *json.UnmarshalTypeError
	if !stderrors.As(err, &typeErr) {
		return nil, errors.BadRequest("Invalid request body")
	}
	if violations := typeViolations(body, dst); len(violations) > 0 {
		return violations, nil
	}
	return []validator.ValidationError{typeViolation(typeErr)}, nil
}

// typeViolations decodes each top-level field of body on its own and reports every type mismatch.
// encoding/json only returns the first one.
func typeViolations(body []byte, dst interface{}) []validator.ValidationError {
	t := reflect.TypeOf(dst)
	if t == nil || t.Kind() != reflect.Ptr {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var violations []validator.ValidationError
	seen := make(map[string]bool)
	for _, k := range keys {
		single, err := json.Marshal(map[string]json.RawMessage{k: fields[k]})
		if err != nil {
			continue
		}
		var typeErr *json.UnmarshalTypeError
		if err := json.Unmarshal(single, reflect.New(t.Elem()).Interface()); !stderrors.As(err, &typeErr) {
			continue
		}
		v := typeViolation(typeErr)
		if seen[v.Field] {
			continue
		}
		seen[v.Field] = true
		violations = append(violations, v)
	}
	return violations
}

func typeViolation(typeErr *json.UnmarshalTypeError) validator.ValidationError {
	field := typeErr.Field
	if i := strings.IndexByte(field, '.'); i > 0 {
		field = field[:i]
	}
	if field == "" {
		field = "body"
	}
	return validator.ValidationError{
		Field:   field,
		Tag:     "type",
		Value:   typeErr.Value,
		Message: fmt.Sprintf("%s has the wrong type: expected %s, got %s", field, typeErr.Type, typeErr.Value),
	}
}

// writeServiceError maps a service error onto the error envelope. Only server faults are logged as errors.
// Store and internal failures reach the client as a generic INTERNAL_ERROR.
func writeServiceError(w http.ResponseWriter, log *logger.Logger, err error, msg string) {
	appErr := errors.As(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		log.ErrorWithErr(err, msg)
		if appErr.Code == errors.ErrCodeDatabase || appErr.Code == errors.ErrCodeInternal {
			appErr = errors.New(errors.ErrCodeInternal, "Internal server error", http.StatusInternalServerError)
		}
	}
	utils.WriteError(w, appErr)
}

func patientIDParam(r *http.Request) (int64, *errors.AppError) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.ValidationError("Invalid patient id", []validator.ValidationError{{
			Field:   "id",
			Message: "id must be a positive integer",
		}})
	}
	return id, nil
}
