package api

import "net/http"

// HealthHandler reports liveness. It deliberately checks nothing downstream:
// the ad platform, postgres and redis are all optional or degradable, and a
// restart fixes none of them.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": s.Config.ServiceName,
	})
}
