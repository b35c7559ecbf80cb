// Package httpx provides the JSON response envelope shared by all handlers.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the response body shape: {"success": bool, "msg"?: string, ...}.
type Envelope map[string]any

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Success sends a success envelope, merging the optional payload fields.
func Success(w http.ResponseWriter, status int, msg string, payload Envelope) {
	body := Envelope{"success": true}
	if msg != "" {
		body["msg"] = msg
	}
	for k, v := range payload {
		body[k] = v
	}
	JSON(w, status, body)
}

// Fail sends a failure envelope with the given message.
func Fail(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Envelope{"success": false, "msg": msg})
}

// DecodeJSON decodes a JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
