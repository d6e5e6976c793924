// Package country resolves a country ID to the simulation package
// version its tracer records were produced with. The tracer table is
// keyed by (country, household, policy, api_version), so every lookup
// has to go through this resolution first.
package country

import "fmt"

// PackageVersions maps a country ID to the current simulation package
// version for that country. Updated as part of each package release.
var PackageVersions = map[string]string{
	"us": "1.155.0",
	"uk": "2.22.0",
	"ca": "0.96.2",
	"ng": "0.5.1",
	"il": "0.1.0",
}

// ErrUnknownCountry is returned when a country ID has no registered
// simulation package version.
type ErrUnknownCountry struct {
	CountryID string
}

func (e *ErrUnknownCountry) Error() string {
	return fmt.Sprintf("unknown country: %s", e.CountryID)
}

// ResolveVersion returns the simulation package version for a country.
func ResolveVersion(countryID string) (string, error) {
	v, ok := PackageVersions[countryID]
	if !ok {
		return "", &ErrUnknownCountry{CountryID: countryID}
	}
	return v, nil
}

// IsKnown reports whether the country ID has a registered package version.
func IsKnown(countryID string) bool {
	_, ok := PackageVersions[countryID]
	return ok
}
