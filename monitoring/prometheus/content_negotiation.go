package prometheus

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/golang/gddo/httputil"
)

const (
	contentTypePlainText = "text/plain"
	contentTypeJSON      = "application/json"
)

// generatedResponse is a container for response output.
type generatedResponse struct {
	// Err is protocol error, if any.
	Err string `json:"error"`

	// Data is response output, if any.
	Data interface{} `json:"data"`

	// text is the plain text rendering of Data.
	text []byte
}

// negotiateContentType parses "Accept:" header and returns preferred content type string.
func negotiateContentType(r *http.Request) string {
	contentTypes := []string{
		contentTypePlainText,
		contentTypeJSON,
	}
	return httputil.NegotiateContentType(r, contentTypes, contentTypePlainText)
}

// writeResponse is content-type aware response writer.
func writeResponse(w http.ResponseWriter, r *http.Request, status int, response generatedResponse) error {
	switch negotiateContentType(r) {
	case contentTypeJSON:
		w.Header().Set("Content-Type", contentTypeJSON)
		w.WriteHeader(status)
		return json.NewEncoder(w).Encode(response)
	default:
		w.Header().Set("Content-Type", contentTypePlainText)
		w.WriteHeader(status)
		if _, err := w.Write(response.text); err != nil {
			return fmt.Errorf("could not write response body: %w", err)
		}
	}
	return nil
}
