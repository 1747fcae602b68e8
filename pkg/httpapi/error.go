package httpapi

import (
	"encoding/json"
	"net/http"
)

// ErrorEnvelope is the JSON body of every API error.
type ErrorEnvelope struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// RequestMeta builds error meta carrying the request id, skipping empty
// values.
func RequestMeta(requestID string, kv ...string) map[string]string {
	meta := map[string]string{}
	if requestID != "" {
		meta["request_id"] = requestID
	}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			meta[kv[i]] = kv[i+1]
		}
	}
	return meta
}
