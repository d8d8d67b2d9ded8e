package middleware

import (
	"encoding/json"
	"net/http"
)

// noticeEvent is the client event app.js listens for to show a transient message.
const noticeEvent = "travel:notice"

// writeError keeps the current fragment in place for htmx requests and raises a notice
// event instead; plain requests get a text body.
func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	if IsHTMX(r.Context()) {
		trigger, _ := json.Marshal(map[string]string{noticeEvent: msg})
		w.Header().Set("HX-Reswap", "none")
		w.Header().Set("HX-Trigger", string(trigger))
		w.WriteHeader(code)
		return
	}
	http.Error(w, msg, code)
}

// TooManyRequests answers rate-limited spins and draws.
func TooManyRequests(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusTooManyRequests, "too many spins, slow down")
}
