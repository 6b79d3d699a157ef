package health

import "net/http"

// Path is where the liveness probe is served.
const Path = "/healthz"

// Handler answers the liveness probe with 200 and an empty body. It performs
// no dependency checks: a response proves the process is serving.
func Handler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
