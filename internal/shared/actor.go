package shared

import (
	"net/http"
	"strconv"
)

// ActorHeader carries the acting user's ID. Authentication happens upstream;
// the gateway strips any client-supplied value before injecting its own.
const ActorHeader = "X-Actor-ID"

// ActorID extracts the acting user from the request. Zero means unknown.
func ActorID(r *http.Request) int64 {
	id, err := strconv.ParseInt(r.Header.Get(ActorHeader), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}
