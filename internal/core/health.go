package core

import (
	"net/http"
)

// healthResponse is the JSON body of the health endpoint.
type healthResponse struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	Environment string `json:"environment"`
	Version     string `json:"version,omitempty"`
	Commit      string `json:"commit,omitempty"`
}

// HandleHealth reports liveness. The service holds no local state beyond
// in-memory sessions and opens upstream connections lazily, so a responding
// process is a healthy one.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:      "healthy",
		Service:     s.Config.Service,
		Environment: s.Config.Environment,
		Version:     s.Config.Build.Version,
		Commit:      s.Config.Build.Commit,
	}
	JSON(w, r, http.StatusOK, resp)
}
