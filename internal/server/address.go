package server

import (
	"net/http"

	"github.com/stefancrain/GeoApi/internal/model"
)

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	addr := addressFromQuery(r)
	if !addr.Valid() {
		writeError(w, http.StatusBadRequest, model.StatusMissingAddress)
		return
	}
	writeJSON(w, http.StatusOK, addressResponseOf(s.addresses.Validate(r.Context(), addr)))
}

func (s *Server) handleValidateBatch(w http.ResponseWriter, r *http.Request) {
	addrs, ok := decodeAddressBatch(w, r)
	if !ok {
		return
	}
	results := s.addresses.ValidateBatch(r.Context(), addrs)
	out := make([]addressResponse, len(results))
	for i, res := range results {
		out[i] = addressResponseOf(res)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCityState(w http.ResponseWriter, r *http.Request) {
	zip5 := r.URL.Query().Get("zip5")
	if zip5 == "" {
		writeError(w, http.StatusBadRequest, model.StatusMissingInputParams)
		return
	}
	writeJSON(w, http.StatusOK, addressResponseOf(s.addresses.CityState(r.Context(), zip5)))
}

func (s *Server) handleZipLookup(w http.ResponseWriter, r *http.Request) {
	addr := addressFromQuery(r)
	if addr.Addr1 == "" || addr.City == "" {
		writeError(w, http.StatusBadRequest, model.StatusInsufficientAddress)
		return
	}
	writeJSON(w, http.StatusOK, addressResponseOf(s.addresses.ZipLookup(r.Context(), addr)))
}
