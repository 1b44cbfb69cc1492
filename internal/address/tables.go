package address

// directionals maps spelled-out and abbreviated directionals to their
// canonical postal abbreviation.
var directionals = map[string]string{
	"N": "N", "S": "S", "E": "E", "W": "W",
	"NE": "NE", "NW": "NW", "SE": "SE", "SW": "SW",
	"NORTH": "N", "SOUTH": "S", "EAST": "E", "WEST": "W",
	"NORTHEAST": "NE", "NORTHWEST": "NW", "SOUTHEAST": "SE", "SOUTHWEST": "SW",
}

// streetTypes maps street-type variants to the canonical USPS suffix.
var streetTypes = map[string]string{
	"ALLEE": "ALY", "ALLEY": "ALY", "ALY": "ALY",
	"AVE": "AVE", "AVENUE": "AVE", "AV": "AVE",
	"BLVD": "BLVD", "BOULEVARD": "BLVD", "BOUL": "BLVD",
	"BND": "BND", "BEND": "BND",
	"CIR": "CIR", "CIRCLE": "CIR",
	"CT": "CT", "COURT": "CT",
	"CRES": "CRES", "CRESCENT": "CRES",
	"DR": "DR", "DRIVE": "DR", "DRV": "DR",
	"EXPY": "EXPY", "EXPRESSWAY": "EXPY",
	"EXT": "EXT", "EXTENSION": "EXT",
	"HTS": "HTS", "HEIGHTS": "HTS",
	"HWY": "HWY", "HIGHWAY": "HWY",
	"LN": "LN", "LANE": "LN",
	"LOOP": "LOOP",
	"PKWY": "PKWY", "PARKWAY": "PKWY", "PKY": "PKWY",
	"PL": "PL", "PLACE": "PL",
	"PLZ": "PLZ", "PLAZA": "PLZ",
	"PT": "PT", "POINT": "PT",
	"RD": "RD", "ROAD": "RD",
	"ROW": "ROW",
	"RTE": "RTE", "ROUTE": "RTE", "RT": "RTE",
	"SQ": "SQ", "SQUARE": "SQ",
	"ST": "ST", "STREET": "ST", "STR": "ST",
	"TER": "TER", "TERRACE": "TER", "TERR": "TER",
	"TPKE": "TPKE", "TURNPIKE": "TPKE",
	"TRL": "TRL", "TRAIL": "TRL",
	"WAY": "WAY", "WY": "WAY",
	"XING": "XING", "CROSSING": "XING",
}

// unitTypes maps secondary-unit designators to their canonical form.
var unitTypes = map[string]string{
	"APT": "APT", "APARTMENT": "APT",
	"BLDG": "BLDG", "BUILDING": "BLDG",
	"BSMT": "BSMT", "BASEMENT": "BSMT",
	"DEPT": "DEPT",
	"FL": "FL", "FLOOR": "FL", "FLR": "FL",
	"LOT": "LOT",
	"PH": "PH", "PENTHOUSE": "PH",
	"RM": "RM", "ROOM": "RM",
	"STE": "STE", "SUITE": "STE",
	"TRLR": "TRLR", "TRAILER": "TRLR",
	"UNIT": "UNIT",
	"#": "#",
}

// stateAbbrs maps lowercase full state names to their abbreviation, and is
// used to normalize the state field to a two-letter code.
var stateAbbrs = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT", "delaware": "DE",
	"florida": "FL", "georgia": "GA", "hawaii": "HI", "idaho": "ID",
	"illinois": "IL", "indiana": "IN", "iowa": "IA", "kansas": "KS",
	"kentucky": "KY", "louisiana": "LA", "maine": "ME", "maryland": "MD",
	"massachusetts": "MA", "michigan": "MI", "minnesota": "MN", "mississippi": "MS",
	"missouri": "MO", "montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM", "new york": "NY",
	"north carolina": "NC", "north dakota": "ND", "ohio": "OH", "oklahoma": "OK",
	"oregon": "OR", "pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC",
	"south dakota": "SD", "tennessee": "TN", "texas": "TX", "utah": "UT",
	"vermont": "VT", "virginia": "VA", "washington": "WA", "west virginia": "WV",
	"wisconsin": "WI", "wyoming": "WY", "district of columbia": "DC",
}

// validAbbrs is the set of recognized two-letter state codes.
var validAbbrs = func() map[string]bool {
	m := make(map[string]bool, len(stateAbbrs))
	for _, abbr := range stateAbbrs {
		m[abbr] = true
	}
	return m
}()
