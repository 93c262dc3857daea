package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/mdpage/internal/logfields"
)

// writeJSON serializes the provided value to JSON and writes it with the
// given status code. Encoding goes through an intermediate buffer so a
// serialization failure never sends a partial response; the encode error
// is returned for the caller's adapter to surface. A pretty=1 or
// pretty=true query parameter switches to indented output.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) error {
	var buf bytes.Buffer
	if wantsPretty(r) {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		buf.Write(b)
		buf.WriteByte('\n')
	} else {
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(true)
		if err := enc.Encode(v); err != nil {
			return err
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed writing JSON response body", logfields.Error(err))
		return err
	}
	return nil
}

func wantsPretty(r *http.Request) bool {
	if r == nil {
		return false
	}
	p := r.URL.Query().Get("pretty")
	return p == "1" || p == "true"
}
