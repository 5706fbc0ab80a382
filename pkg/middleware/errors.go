package middleware

import (
	"encoding/json"
	"net/http"
)

// writeJSONError writes the {"error":{code,message}} envelope used by every
// storefront endpoint. It is kept local so middleware does not depend on the
// handler packages.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
