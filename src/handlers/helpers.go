package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/tradeboard/backend/src/logger"
	"github.com/tradeboard/backend/src/security/validation"
	"github.com/tradeboard/backend/src/services"
	"github.com/tradeboard/backend/src/storage"
	"github.com/tradeboard/backend/src/utils"
)

const maxBodyBytes = 1 << 20

var errInvalidPayload = errors.New("invalid request payload")

// decodePayload reads a JSON object body, or a form body when the client
// posts one. Numbers are kept as json.Number so the services can tell
// integers from floats.
func decodePayload(w http.ResponseWriter, r *http.Request) (services.Payload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, fmt.Errorf("%w: %v", errInvalidPayload, err)
		}
		payload := services.Payload{}
		for key, values := range r.PostForm {
			if len(values) > 0 {
				payload[key] = values[0]
			}
		}
		return payload, nil
	}

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var payload services.Payload
	if err := dec.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return services.Payload{}, nil
		}
		return nil, fmt.Errorf("%w: %v", errInvalidPayload, err)
	}
	if payload == nil {
		payload = services.Payload{}
	}
	return payload, nil
}

// readPayload decodes the body and answers 400 itself on failure.
func readPayload(w http.ResponseWriter, r *http.Request) (services.Payload, bool) {
	payload, err := decodePayload(w, r)
	if err != nil {
		logger.FromContext(r.Context()).Warn("Rejected request body", "path", r.URL.Path, "error", err)
		utils.SendJSONError(w, "Invalid JSON payload", http.StatusBadRequest)
		return nil, false
	}
	return payload, true
}

// readTicket extracts the trade identifier sent as "id".
func readTicket(w http.ResponseWriter, payload services.Payload) (int64, bool) {
	ticket, err := validation.AsTicket(payload["id"], "id")
	if err != nil {
		utils.SendJSONError(w, validation.Message(err), http.StatusBadRequest)
		return 0, false
	}
	return ticket, true
}

// writeServiceError maps a service error to the error envelope. notFound is
// the message shown when the referenced record does not exist; backend
// failures are logged and answered with a generic message naming op.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error, notFound string) {
	ctxLogger := logger.FromContext(r.Context())

	switch {
	case errors.Is(err, validation.ErrValidationFailed):
		ctxLogger.Debug("Validation failed", "op", op, "error", err)
		utils.SendJSONError(w, validation.Message(err), http.StatusBadRequest)
	case errors.Is(err, storage.ErrNotFound):
		ctxLogger.Debug("Record not found", "op", op, "error", err)
		utils.SendJSONError(w, notFound, http.StatusNotFound)
	case errors.Is(err, services.ErrCapitalUnavailable):
		utils.SendJSONError(w, "No account snapshot stored and MT4_DASHBOARD_BALANCE is not set", http.StatusNotFound)
	case errors.Is(err, storage.ErrCorrupt):
		ctxLogger.Error("Stored document is malformed", "op", op, "error", err)
		utils.SendJSONError(w, withRequestID(r, "Stored data is malformed, cannot "+op), http.StatusInternalServerError)
	default:
		ctxLogger.Error("Backend failure", "op", op, "error", err)
		utils.SendJSONError(w, withRequestID(r, "Internal server error, cannot "+op), http.StatusInternalServerError)
	}
}

// withRequestID suffixes msg with the request id so a reported failure can be
// matched to its log line.
func withRequestID(r *http.Request, msg string) string {
	if id, ok := RequestIDFromContext(r.Context()); ok {
		return fmt.Sprintf("%s (request %s)", msg, id)
	}
	return msg
}
