package model

import "time"

// Status classifies the outcome of a service operation.
type Status string

const (
	StatusSuccess Status = "SUCCESS"

	// Input validation.
	StatusMissingAddress      Status = "MISSING_ADDRESS"
	StatusMissingGeocode      Status = "MISSING_GEOCODE"
	StatusMissingPoint        Status = "MISSING_POINT"
	StatusMissingInputParams  Status = "MISSING_INPUT_PARAMS"
	StatusInsufficientAddress Status = "INSUFFICIENT_ADDRESS"
	StatusInvalidAddress      Status = "INVALID_ADDRESS"
	StatusInvalidGeocode      Status = "INVALID_GEOCODE"
	StatusNonNYState          Status = "NON_NY_STATE"

	// Provider selection.
	StatusServiceNotSupported  Status = "SERVICE_NOT_SUPPORTED"
	StatusProviderNotSupported Status = "PROVIDER_NOT_SUPPORTED"

	// Upstream results.
	StatusResponseMissingError     Status = "RESPONSE_MISSING_ERROR"
	StatusResponseParseError       Status = "RESPONSE_PARSE_ERROR"
	StatusNoGeocodeResult          Status = "NO_GEOCODE_RESULT"
	StatusNoReverseGeocodeResult   Status = "NO_REVERSE_GEOCODE_RESULT"
	StatusNoAddressValidateResult  Status = "NO_ADDRESS_VALIDATE_RESULT"
	StatusNoDistrictResult         Status = "NO_DISTRICT_RESULT"

	// Partial success.
	StatusPartialDistrictResult  Status = "PARTIAL_DISTRICT_RESULT"
	StatusMultipleDistrictResult Status = "MULTIPLE_DISTRICT_RESULT"

	// Internal.
	StatusInternalError Status = "INTERNAL_ERROR"
	StatusDatabaseError Status = "DATABASE_ERROR"
)

var statusMessages = map[Status]string{
	StatusSuccess:                 "Success.",
	StatusMissingAddress:          "An address is required.",
	StatusMissingGeocode:          "A valid geocoded coordinate pair is required.",
	StatusMissingPoint:            "A coordinate pair is required.",
	StatusMissingInputParams:      "One or more parameters are missing.",
	StatusInsufficientAddress:     "The supplied address is missing one or more parameters.",
	StatusInvalidAddress:          "The supplied address is invalid.",
	StatusInvalidGeocode:          "The supplied geocoded coordinate pair is invalid.",
	StatusNonNYState:              "The address is not within New York State.",
	StatusServiceNotSupported:     "The requested service is unsupported.",
	StatusProviderNotSupported:    "The requested provider is unsupported.",
	StatusResponseMissingError:    "No response from service provider.",
	StatusResponseParseError:      "Error parsing response from service provider.",
	StatusNoGeocodeResult:         "Geocode service returned no results.",
	StatusNoReverseGeocodeResult:  "Reverse geocode service returned no results.",
	StatusNoAddressValidateResult: "The address could not be validated.",
	StatusNoDistrictResult:        "District assignment returned no results.",
	StatusPartialDistrictResult:   "District assignment yielded some districts.",
	StatusMultipleDistrictResult:  "Multiple matches were found for certain districts.",
	StatusInternalError:           "Internal server error.",
	StatusDatabaseError:           "Database error.",
}

// Message returns the human-readable description of the status.
func (s Status) Message() string {
	if m, ok := statusMessages[s]; ok {
		return m
	}
	return string(s)
}

// Success reports whether the status is SUCCESS.
func (s Status) Success() bool { return s == StatusSuccess }

// PartialSuccess reports whether the status indicates a usable partial result.
func (s Status) PartialSuccess() bool {
	return s == StatusPartialDistrictResult || s == StatusMultipleDistrictResult
}

// MatchLevel is the precision achieved by district assignment.
type MatchLevel string

const (
	MatchNone   MatchLevel = "NOMATCH"
	MatchCity   MatchLevel = "CITY"
	MatchZip5   MatchLevel = "ZIP5"
	MatchStreet MatchLevel = "STREET"
	MatchHouse  MatchLevel = "HOUSE"
)

// AddressResult is the outcome of an address validation or lookup.
type AddressResult struct {
	Address   *Address  `json:"address"`
	Source    string    `json:"source"`
	Validated bool      `json:"validated"`
	Status    Status    `json:"statusCode"`
	Messages  []string  `json:"messages,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Success reports whether validation succeeded.
func (r *AddressResult) Success() bool { return r != nil && r.Status.Success() }

// GeocodeResult is the outcome of a geocode or reverse geocode request.
type GeocodeResult struct {
	GeocodedAddress *GeocodedAddress `json:"geocodedAddress"`
	Source          string           `json:"source"`
	Status          Status           `json:"statusCode"`
	Timestamp       time.Time        `json:"timestamp"`
}

// Success reports whether the geocode succeeded.
func (r *GeocodeResult) Success() bool { return r != nil && r.Status.Success() }

// Geocode returns the geocode half of the result, or nil.
func (r *GeocodeResult) Geocode() *Geocode {
	if r == nil || r.GeocodedAddress == nil {
		return nil
	}
	return r.GeocodedAddress.Geocode
}

// DistrictResult is the outcome of a district assignment.
type DistrictResult struct {
	GeocodedAddress *GeocodedAddress  `json:"geocodedAddress"`
	Info            *DistrictInfo     `json:"districtInfo"`
	Members         []DistrictMember  `json:"members,omitempty"`
	MatchLevel      MatchLevel        `json:"matchLevel"`
	Status          Status            `json:"statusCode"`
	Timestamp       time.Time         `json:"timestamp"`
}

// NewDistrictResult returns a result with an empty DistrictInfo and NOMATCH level.
func NewDistrictResult(ga *GeocodedAddress) *DistrictResult {
	return &DistrictResult{
		GeocodedAddress: ga,
		Info:            NewDistrictInfo(),
		MatchLevel:      MatchNone,
		Status:          StatusNoDistrictResult,
		Timestamp:       time.Now(),
	}
}

// Success reports whether assignment fully or partially succeeded.
func (r *DistrictResult) Success() bool { return r != nil && r.Status.Success() }

// Usable reports whether the result carries at least some districts.
func (r *DistrictResult) Usable() bool {
	return r != nil && (r.Status.Success() || r.Status.PartialSuccess())
}

// Address returns the address half of the result, or nil.
func (r *DistrictResult) Address() *Address {
	if r == nil || r.GeocodedAddress == nil {
		return nil
	}
	return r.GeocodedAddress.Address
}

// Geocode returns the geocode half of the result, or nil.
func (r *DistrictResult) Geocode() *Geocode {
	if r == nil || r.GeocodedAddress == nil {
		return nil
	}
	return r.GeocodedAddress.Geocode
}
