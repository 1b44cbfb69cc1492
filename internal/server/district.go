package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/stefancrain/GeoApi/internal/model"
	"github.com/stefancrain/GeoApi/internal/pipeline"
	"github.com/stefancrain/GeoApi/internal/service/district"
)

// maxBatchSize bounds POSTed batch bodies.
const maxBatchSize = 1000

func (s *Server) assignRequest(r *http.Request, bluebird bool) pipeline.Request {
	single, blue := s.strategySingle, s.strategyBluebird
	if s.strategySource != nil {
		single, blue = s.strategySource()
	}
	strategy := single
	if bluebird {
		strategy = blue
	}
	if tag := r.URL.Query().Get("districtStrategy"); tag != "" {
		strategy = district.ParseStrategy(tag)
	}
	return pipeline.Request{
		USPSValidate: boolParam(r, "uspsValidate"),
		SkipGeocode:  boolParam(r, "skipGeocode"),
		ShowMaps:     boolParam(r, "showMaps"),
		ShowMembers:  boolParam(r, "showMembers"),
		Strategy:     strategy,
		GeoProvider:  r.URL.Query().Get("geoProvider"),
		Types:        typesParam(r),
	}
}

// handleAssign serves single assignment requests: an address via the standard
// query parameters, or a point via lat/lon.
func (s *Server) handleAssign(bluebird bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := s.assignRequest(r, bluebird)
		if p, ok := pointFromQuery(r); ok {
			req.Point = &p
		} else {
			addr := addressFromQuery(r)
			if !addr.Valid() {
				writeError(w, http.StatusBadRequest, model.StatusMissingAddress)
				return
			}
			req.Address = addr
		}

		result := s.resolver.Resolve(r.Context(), req)
		writeJSON(w, http.StatusOK, districtResponseOf(result))
	}
}

// handleAssignBatch serves POSTed address batches, preserving input order.
func (s *Server) handleAssignBatch(bluebird bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addrs, ok := decodeAddressBatch(w, r)
		if !ok {
			return
		}
		req := s.assignRequest(r, bluebird)

		results := s.resolver.ResolveBatch(r.Context(), addrs, req)
		out := make([]districtResponse, len(results))
		for i, res := range results {
			out[i] = districtResponseOf(res)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// decodeAddressBatch reads a JSON body holding a bare address array, or the
// equivalent {"addresses": [...]} envelope.
func decodeAddressBatch(w http.ResponseWriter, r *http.Request) ([]*model.Address, bool) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<22))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.StatusMissingInputParams)
		return nil, false
	}

	var addrs []*model.Address
	if trimmed := bytes.TrimLeft(raw, " \t\r\n"); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(raw, &addrs)
	} else {
		var body struct {
			Addresses []*model.Address `json:"addresses"`
		}
		err = json.Unmarshal(raw, &body)
		addrs = body.Addresses
	}
	if err != nil || len(addrs) == 0 || len(addrs) > maxBatchSize {
		writeError(w, http.StatusBadRequest, model.StatusMissingInputParams)
		return nil, false
	}
	return addrs, true
}
