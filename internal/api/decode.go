package api

import (
	"encoding/json"
	"errors"
	"net/http"
)

// decodeJSON reads the request body into v and writes a 400 on failure.
// Fields not present in v are ignored, so clients cannot set owner or
// timestamp columns.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "request body too large")
			return false
		}
		writeBadRequest(w, "invalid JSON body")
		return false
	}
	return true
}
