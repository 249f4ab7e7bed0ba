package api

import (
	"encoding/json"
	"net/http"

	"github.com/vmihailenco/msgpack/v5"
)

const formatMsgpack = "msgpack"

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeResponse encodes v as JSON, or as MessagePack when the request asks
// for ?format=msgpack. MessagePack keys follow the json tags.
func writeResponse(w http.ResponseWriter, r *http.Request, status int, v any) {
	if r != nil && r.URL.Query().Get("format") == formatMsgpack {
		w.Header().Set("Content-Type", "application/msgpack")
		w.WriteHeader(status)
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		_ = enc.Encode(v)
		return
	}
	writeJSON(w, status, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeResponse(w, r, status, errorResponse{Code: code, Message: msg})
}
