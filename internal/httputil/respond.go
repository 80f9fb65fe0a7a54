// Package httputil holds the small JSON response/decode helpers shared by
// HTTP handlers, grounded on wisbric/nightowl's vendored
// github.com/wisbric/core/pkg/httpserver package — reimplemented here
// rather than imported, since that package belongs to a different
// module's internal/vendor tree and is not importable from outside it.
package httputil

import (
	"encoding/json"
	"net/http"
)

// Respond writes data as a JSON response with the given status code. A
// nil data writes only the status line, used for the 201/204 empty
// bodies in spec.md §4.C's route table.
func Respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// RespondError writes the status line only, no body: spec.md §7 states
// the subscription manager "surfaces errors as HTTP status codes with no
// body." Callers log the underlying error themselves.
func RespondError(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
}

// Decode parses a JSON request body into v.
func Decode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
