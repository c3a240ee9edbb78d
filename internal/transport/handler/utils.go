package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/leotorrealba/Kratostech-Converter/internal/entities"
)

func statusFor(kind entities.Kind) int {
	switch kind {
	case entities.KindBadRequest, entities.KindUnsupportedInputFormat, entities.KindUnsupportedOutputFormat:
		return http.StatusBadRequest
	case entities.KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case entities.KindSizeLimitExceeded:
		return http.StatusRequestEntityTooLarge
	case entities.KindNotImplemented:
		return http.StatusNotImplemented
	case entities.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status and a JSON body. Server-side failures are
// reported to Sentry, the rest is only logged.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(entities.KindOf(err))
	msg := entities.MessageOf(err)

	fields := []zap.Field{
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Stringer("kind", entities.KindOf(err)),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
		if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
			hub.CaptureException(err)
		}
	} else {
		h.logger.Info("request rejected", fields...)
	}

	writeJSONError(w, msg, status)
}

func writeJSONError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	_ = json.NewEncoder(w).Encode(APIError{
		Message: message,
	})
}

func writeFile(w http.ResponseWriter, f entities.ConvertedFile) {
	w.Header().Set("Content-Type", f.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Bytes)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Filename}))
	if f.PageCount > 0 {
		w.Header().Set("X-Page-Count", strconv.Itoa(f.PageCount))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(f.Bytes)
}

// parseIntDefault returns def for an empty or non-numeric value. A number
// that does not fit an int is rejected rather than replaced.
func parseIntDefault(name, s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if errors.Is(err, strconv.ErrRange) {
		return def, outOfRange(name, err)
	}
	if err != nil {
		return def, nil
	}
	return v, nil
}

func parseFloatDefault(name, s string, def float64) (float64, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if errors.Is(err, strconv.ErrRange) {
		return def, outOfRange(name, err)
	}
	if err != nil {
		return def, nil
	}
	return v, nil
}

func outOfRange(name string, err error) error {
	return entities.NewError(entities.KindBadRequest, fmt.Sprintf("Invalid parameters: %s is out of range", name), err)
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// validationError folds validator failures into one BadRequest message.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return entities.NewError(entities.KindBadRequest, "Invalid parameters", err)
	}

	parts := make([]string, 0, len(verrs))
	for _, e := range verrs {
		switch e.Tag() {
		case "gte":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", e.Field(), e.Param()))
		case "lte":
			parts = append(parts, fmt.Sprintf("%s must be at most %s", e.Field(), e.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", e.Field()))
		}
	}
	return entities.NewError(entities.KindBadRequest, "Invalid parameters: "+strings.Join(parts, "; "), err)
}
