package model

import (
	"fmt"
	"strings"
)

// Address is a raw postal address as received from callers.
type Address struct {
	Addr1  string `json:"addr1"`
	Addr2  string `json:"addr2"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip5   string `json:"zip5"`
	Zip4   string `json:"zip4"`
	Parsed bool   `json:"-"`
}

// Empty reports whether no usable component is present.
func (a *Address) Empty() bool {
	if a == nil {
		return true
	}
	return strings.TrimSpace(a.Addr1) == "" && strings.TrimSpace(a.Addr2) == "" &&
		strings.TrimSpace(a.City) == "" && strings.TrimSpace(a.Zip5) == ""
}

// Valid reports whether the address has enough content to work with.
func (a *Address) Valid() bool {
	return !a.Empty()
}

// String renders the address on one line.
func (a *Address) String() string {
	if a == nil {
		return ""
	}
	parts := make([]string, 0, 4)
	if a.Addr1 != "" {
		parts = append(parts, a.Addr1)
	}
	if a.Addr2 != "" {
		parts = append(parts, a.Addr2)
	}
	if a.City != "" {
		parts = append(parts, a.City)
	}
	tail := strings.TrimSpace(a.State + " " + a.Zip5)
	if a.Zip4 != "" && a.Zip5 != "" {
		tail += "-" + a.Zip4
	}
	if tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, ", ")
}

// StreetAddress is the parsed, canonical form of an Address. Street name and
// type are upper-case canonical; BldgNum of 0 means absent.
type StreetAddress struct {
	BldgNum    int    `json:"bldgNum"`
	BldgChar   string `json:"bldgChar,omitempty"`
	PreDir     string `json:"preDir"`
	StreetName string `json:"streetName"`
	StreetType string `json:"streetType"`
	PostDir    string `json:"postDir"`
	UnitType   string `json:"unitType,omitempty"`
	UnitNum    string `json:"unitNum,omitempty"`
	Location   string `json:"location"`
	State      string `json:"state"`
	Zip5       string `json:"zip5"`
	Zip4       string `json:"zip4"`
	PoBox      string `json:"poBox,omitempty"`
}

// StreetEmpty reports whether no street name was parsed.
func (sa *StreetAddress) StreetEmpty() bool {
	return sa == nil || sa.StreetName == ""
}

// IsPoBox reports whether the address is a post office box.
func (sa *StreetAddress) IsPoBox() bool {
	return sa != nil && sa.PoBox != ""
}

// Street returns the full street designation (predir name type postdir).
func (sa *StreetAddress) Street() string {
	if sa == nil {
		return ""
	}
	parts := make([]string, 0, 4)
	for _, p := range []string{sa.PreDir, sa.StreetName, sa.StreetType, sa.PostDir} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// ToAddress converts the parsed form back into a plain Address.
func (sa *StreetAddress) ToAddress() Address {
	addr1 := ""
	switch {
	case sa.IsPoBox():
		addr1 = "PO Box " + sa.PoBox
	case sa.BldgNum > 0:
		addr1 = fmt.Sprintf("%d %s", sa.BldgNum, sa.Street())
	default:
		addr1 = sa.Street()
	}
	addr2 := ""
	if sa.UnitType != "" {
		addr2 = strings.TrimSpace(sa.UnitType + " " + sa.UnitNum)
	}
	return Address{
		Addr1:  strings.TrimSpace(addr1),
		Addr2:  addr2,
		City:   sa.Location,
		State:  sa.State,
		Zip5:   sa.Zip5,
		Zip4:   sa.Zip4,
		Parsed: true,
	}
}

// GeocodedAddress pairs an address with its geocode. Either half may be nil;
// the pair is valid only when both halves pass their own checks.
type GeocodedAddress struct {
	Address *Address `json:"address"`
	Geocode *Geocode `json:"geocode"`
}

// ValidAddress reports whether the address half is present and usable.
func (ga *GeocodedAddress) ValidAddress() bool {
	return ga != nil && ga.Address != nil && ga.Address.Valid()
}

// ValidGeocode reports whether the geocode half is present and usable.
func (ga *GeocodedAddress) ValidGeocode() bool {
	return ga != nil && ga.Geocode.Valid()
}

// Valid reports whether both halves are valid.
func (ga *GeocodedAddress) Valid() bool {
	return ga.ValidAddress() && ga.ValidGeocode()
}

// GeocodedStreetAddress pairs a parsed street address with its geocode.
// This is the form returned by geocode cache hits.
type GeocodedStreetAddress struct {
	StreetAddress *StreetAddress `json:"streetAddress"`
	Geocode       *Geocode       `json:"geocode"`
}
