package server

import (
	"net/http"

	"github.com/stefancrain/GeoApi/internal/model"
)

// handleMap serves cached district boundary geometry. With a district code it
// returns one map; without, every map of the requested type.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	if s.maps == nil {
		writeError(w, http.StatusServiceUnavailable, model.StatusServiceNotSupported)
		return
	}
	t := model.ResolveType(r.URL.Query().Get("districtType"))
	if t == "" {
		writeError(w, http.StatusBadRequest, model.StatusMissingInputParams)
		return
	}

	if code := r.URL.Query().Get("district"); code != "" {
		m := s.maps.Map(t, code)
		if m.Empty() {
			writeError(w, http.StatusNotFound, model.StatusNoDistrictResult)
			return
		}
		writeJSON(w, http.StatusOK, m)
		return
	}

	maps := s.maps.MapsOfType(t)
	if len(maps) == 0 {
		writeError(w, http.StatusNotFound, model.StatusNoDistrictResult)
		return
	}
	writeJSON(w, http.StatusOK, maps)
}
