package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/stefancrain/GeoApi/internal/model"
)

// addressFromQuery builds an Address from the standard query parameters.
// A one-line "addr" parameter is accepted as an alias for addr1.
func addressFromQuery(r *http.Request) *model.Address {
	q := r.URL.Query()
	addr := &model.Address{
		Addr1: strings.TrimSpace(q.Get("addr1")),
		Addr2: strings.TrimSpace(q.Get("addr2")),
		City:  strings.TrimSpace(q.Get("city")),
		State: strings.TrimSpace(q.Get("state")),
		Zip5:  strings.TrimSpace(q.Get("zip5")),
		Zip4:  strings.TrimSpace(q.Get("zip4")),
	}
	if addr.Addr1 == "" {
		addr.Addr1 = strings.TrimSpace(q.Get("addr"))
	}
	return addr
}

// pointFromQuery reads lat/lon parameters; ok is false when either is absent
// or unparseable.
func pointFromQuery(r *http.Request) (model.Point, bool) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	if errLat != nil || errLon != nil {
		return model.Point{}, false
	}
	return model.Point{Lat: lat, Lon: lon}, true
}

func boolParam(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

// typesParam parses a comma-separated districtTypes filter; nil means the
// standard set.
func typesParam(r *http.Request) []model.DistrictType {
	raw := r.URL.Query().Get("districtTypes")
	if raw == "" {
		return nil
	}
	var types []model.DistrictType
	for _, tag := range strings.Split(raw, ",") {
		if t := model.ResolveType(tag); t != "" {
			types = append(types, t)
		}
	}
	return types
}
