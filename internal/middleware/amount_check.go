package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// centsFields are the top-level money/quantity fields a financial POST may
// carry. When present, each must be a positive integer; the services
// re-validate independently, this gate just rejects garbage before any
// business code runs.
var centsFields = []string{"amount_cents", "price_cents", "units"}

// AmountCheck peeks the JSON body of a financial request and rejects
// non-positive or non-integer amounts early. The body is restored so
// downstream handlers can re-read it.
func AmountCheck(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bodyBytes, err := io.ReadAll(r.Body)
		r.Body.Close()
		if err != nil {
			http.Error(w, `{"error":"failed to read body"}`, http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

		var peek map[string]json.RawMessage
		if err := json.Unmarshal(bodyBytes, &peek); err != nil {
			http.Error(w, `{"error":"invalid JSON body"}`, http.StatusBadRequest)
			return
		}

		for _, field := range centsFields {
			raw, ok := peek[field]
			if !ok {
				continue
			}
			var n int64
			if err := json.Unmarshal(raw, &n); err != nil {
				http.Error(w, fmt.Sprintf(`{"error":"%s must be an integer"}`, field), http.StatusBadRequest)
				return
			}
			if n <= 0 {
				http.Error(w, fmt.Sprintf(`{"error":"%s must be > 0"}`, field), http.StatusBadRequest)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
