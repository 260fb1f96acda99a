package web

import (
	"encoding/json"
	"net/http"
)

// AttributeView is the JSON shape of one attribute.
type AttributeView struct {
	Name        string   `json:"name"`
	UUID        string   `json:"uuid"`
	Description string   `json:"description"`
	Flags       []string `json:"flags"`
	Value       any      `json:"value"`
}

// handleAPIListAttributes returns every attribute with its last known value.
// Nothing is fetched from the backend; use the per-attribute endpoint for a
// live read.
func (s *Server) handleAPIListAttributes(w http.ResponseWriter, r *http.Request) {
	views := make([]AttributeView, 0, len(s.svc.Attributes))
	for _, attr := range s.svc.Attributes {
		views = append(views, AttributeView{
			Name:        attr.Name(),
			UUID:        attr.UUID(),
			Description: attr.Description(),
			Flags:       attr.Flags(),
			Value:       attr.Display(attr.Value()),
		})
	}
	s.writeJSON(w, http.StatusOK, views)
}

// handleAPIGetAttribute performs a live read, exactly as a GATT client would.
func (s *Server) handleAPIGetAttribute(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	attr := s.svc.Attribute(name)
	if attr == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "attribute not found"})
		return
	}

	raw, err := attr.Read(r.Context())
	if err != nil {
		s.logger.Error("attribute read", "attribute", name, "err", err)
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	s.writeJSON(w, http.StatusOK, AttributeView{
		Name:        attr.Name(),
		UUID:        attr.UUID(),
		Description: attr.Description(),
		Flags:       attr.Flags(),
		Value:       attr.Display(raw),
	})
}

func (s *Server) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	state := "unknown"
	if s.stateFn != nil {
		state = s.stateFn()
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"state":      state,
		"attributes": len(s.svc.Attributes),
	})
}

func (s *Server) handleAPIVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("writeJSON encode failed", "err", err)
	}
}
