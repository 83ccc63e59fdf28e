package api

import (
	"encoding/json"
	"net/http"
)

// apiKeyMiddleware validates the X-API-Key header. An empty expected key
// lets every request through.
func apiKeyMiddleware(expectedKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if expectedKey == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				sendError(w, "Missing X-API-Key header", http.StatusUnauthorized)
				return
			}
			if apiKey != expectedKey {
				sendError(w, "Invalid API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sendSuccess sends a successful JSON response
func sendSuccess(w http.ResponseWriter, data interface{}) {
	sendJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

// sendCreated sends a 201 JSON response
func sendCreated(w http.ResponseWriter, data interface{}) {
	sendJSON(w, http.StatusCreated, APIResponse{Success: true, Data: data})
}

// sendError sends an error JSON response
func sendError(w http.ResponseWriter, message string, statusCode int) {
	sendJSON(w, statusCode, APIResponse{Success: false, Error: message})
}

func sendJSON(w http.ResponseWriter, statusCode int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}
