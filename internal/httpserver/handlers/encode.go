package handlers

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/yaelah/internal/encode"
	"github.com/MrSnakeDoc/yaelah/internal/httpserver/deps"
	"github.com/MrSnakeDoc/yaelah/internal/logger"
)

// Encode renders ?text= as a PNG QR code or barcode (?format=, ?size=).
func Encode(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		format, err := encode.ParseFormat(q.Get("format"))
		if err != nil {
			failErr(w, r, d, err)
			return
		}

		size := 0
		if raw := q.Get("size"); raw != "" {
			size, err = strconv.Atoi(raw)
			if err != nil {
				fail(w, http.StatusBadRequest, "invalid size: must be an integer", nil)
				return
			}
		}

		text := q.Get("text")
		img, err := encode.Encode(text, format, size)
		if err != nil {
			failErr(w, r, d, err)
			return
		}

		var buf bytes.Buffer
		if err := encode.WritePNG(&buf, img); err != nil {
			failErr(w, r, d, err)
			return
		}

		if format == encode.FormatEAN13 || format == encode.FormatUPC {
			if digit, err := encode.CheckDigit(text); err == nil {
				w.Header().Set("X-Check-Digit", strconv.Itoa(digit))
			}
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(buf.Bytes()); err != nil {
			d.Logger.Debug("failed to write response", logger.Error(err))
		}
	}
}
