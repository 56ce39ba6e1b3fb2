package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-stockorders/internal/auth"
	"github.com/ariefcatur/go-stockorders/internal/catalog"
	"github.com/ariefcatur/go-stockorders/internal/orders"
	"github.com/ariefcatur/go-stockorders/internal/redisx"
	"github.com/rs/zerolog"
)

type errorBody struct {
	Error     string `json:"error"`
	ProductID int64  `json:"product_id,omitempty"`
	Requested int    `json:"requested,omitempty"`
	Available *int   `json:"available,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMsg(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

// writeError maps domain errors onto status codes. Anything unrecognised is
// logged and reported as 500 without details.
func writeError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var insufficient *orders.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		available := insufficient.Available
		writeJSON(w, http.StatusConflict, errorBody{
			Error:     "insufficient stock",
			ProductID: insufficient.ProductID,
			Requested: insufficient.Requested,
			Available: &available,
		})
	case errors.Is(err, orders.ErrNotFound), errors.Is(err, catalog.ErrNotFound), errors.Is(err, auth.ErrUserNotFound):
		writeMsg(w, http.StatusNotFound, err.Error())
	case errors.Is(err, orders.ErrInvalidTransition), errors.Is(err, catalog.ErrDuplicateArticle),
		errors.Is(err, auth.ErrDuplicateEmail), errors.Is(err, auth.ErrDuplicateUsername),
		errors.Is(err, redisx.ErrInFlight):
		writeMsg(w, http.StatusConflict, err.Error())
	case errors.Is(err, orders.ErrInvalidQuantity), errors.Is(err, catalog.ErrValidation), errors.Is(err, auth.ErrValidation):
		writeMsg(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeMsg(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrInactiveUser):
		writeMsg(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, orders.ErrPersistence):
		log.Error().Err(err).Msg("persistence failure")
		writeMsg(w, http.StatusServiceUnavailable, "storage unavailable, retry later")
	default:
		log.Error().Err(err).Msg("unhandled error")
		writeMsg(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// pagination reads offset/limit query params; services clamp the values.
func pagination(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return offset, limit
}
