package activation

import (
	"sort"
	"strings"

	"smsrent/internal/provider"
)

const (
	// maxCountries bounds the country menu offered per service.
	maxCountries = 15
	// maxServiceMatches bounds the service search result list.
	maxServiceMatches = 20
)

// RankCountries orders availability entries by available count, highest
// first, and keeps at most the top 15. The sort is stable so ties preserve
// the provider's order. The input slice is not modified.
func RankCountries(in []provider.CountryAvailability) []provider.CountryAvailability {
	out := make([]provider.CountryAvailability, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if len(out) > maxCountries {
		out = out[:maxCountries]
	}
	return out
}

// MatchServices filters services whose code or display name contains the
// query, case-insensitively, preserving provider order and capping the result
// at 20 matches.
func MatchServices(all []provider.Service, query string) []provider.Service {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []provider.Service
	for _, s := range all {
		if strings.Contains(strings.ToLower(s.Code), q) || strings.Contains(strings.ToLower(s.Name), q) {
			out = append(out, s)
			if len(out) == maxServiceMatches {
				break
			}
		}
	}
	return out
}
