package domain

var categoryCatalog = map[Sector][]string{
	SectorCabinCrew: {
		"Seat or tray table damage",
		"Overhead bin fault",
		"Galley equipment",
		"Lavatory issue",
		"Unruly passenger",
		"Medical assistance",
	},
	SectorSanitation: {
		"Restroom cleaning",
		"Spill or wet floor",
		"Overflowing bins",
		"Pest sighting",
		"Odor complaint",
	},
	SectorSecurity: {
		"Unattended baggage",
		"Suspicious activity",
		"Access control breach",
		"Screening equipment fault",
		"Lost or found item",
	},
	SectorPassengerBoarding: {
		"Gate change confusion",
		"Jet bridge malfunction",
		"Boarding pass scanner",
		"Accessibility assistance",
		"Seating area damage",
	},
	SectorPassengerArrivals: {
		"Baggage carousel fault",
		"Missing baggage",
		"Damaged baggage",
		"Immigration queue",
		"Ground transport",
	},
	SectorSOSPortal: {
		"Medical emergency",
		"Fire or smoke",
		"Security threat",
		"Lost child",
		"Other emergency",
	},
}

// Categories returns the static sector to sub-category catalog. The result is a
// copy so callers cannot mutate the catalog.
func Categories() map[Sector][]string {
	out := make(map[Sector][]string, len(categoryCatalog))
	for sector, subs := range categoryCatalog {
		out[sector] = append([]string(nil), subs...)
	}
	return out
}
