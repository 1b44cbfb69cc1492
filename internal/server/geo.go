package server

import (
	"net/http"

	"github.com/stefancrain/GeoApi/internal/model"
)

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	addr := addressFromQuery(r)
	if !addr.Valid() {
		writeError(w, http.StatusBadRequest, model.StatusMissingAddress)
		return
	}
	result := s.geocoder.Geocode(r.Context(), addr, r.URL.Query().Get("provider"))
	writeJSON(w, http.StatusOK, geocodeResponseOf(result))
}

func (s *Server) handleGeocodeBatch(w http.ResponseWriter, r *http.Request) {
	addrs, ok := decodeAddressBatch(w, r)
	if !ok {
		return
	}
	results := s.geocoder.GeocodeBatch(r.Context(), addrs, r.URL.Query().Get("provider"))
	out := make([]geocodeResponse, len(results))
	for i, res := range results {
		out[i] = geocodeResponseOf(res)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRevGeocode(w http.ResponseWriter, r *http.Request) {
	p, ok := pointFromQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, model.StatusMissingPoint)
		return
	}
	result := s.geocoder.Reverse(r.Context(), p, r.URL.Query().Get("provider"))
	writeJSON(w, http.StatusOK, geocodeResponseOf(result))
}
