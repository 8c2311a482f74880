package activation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smsrent/internal/provider"
)

func TestRankCountriesByCountDesc(t *testing.T) {
	in := []provider.CountryAvailability{
		{CountryID: 1, Count: 5},  // A
		{CountryID: 2, Count: 50}, // B
		{CountryID: 3, Count: 10}, // C
	}
	got := RankCountries(in)
	require.Len(t, got, 3)
	assert.Equal(t, 2, got[0].CountryID)
	assert.Equal(t, 3, got[1].CountryID)
	assert.Equal(t, 1, got[2].CountryID)

	// Input order untouched.
	assert.Equal(t, 1, in[0].CountryID)
}

func TestRankCountriesStableOnTies(t *testing.T) {
	in := []provider.CountryAvailability{
		{CountryID: 7, Count: 3},
		{CountryID: 8, Count: 3},
		{CountryID: 9, Count: 3},
	}
	got := RankCountries(in)
	require.Len(t, got, 3)
	assert.Equal(t, []int{7, 8, 9}, []int{got[0].CountryID, got[1].CountryID, got[2].CountryID})
}

func TestRankCountriesTruncatesToFifteen(t *testing.T) {
	var in []provider.CountryAvailability
	for i := 0; i < 40; i++ {
		in = append(in, provider.CountryAvailability{CountryID: i, Count: i})
	}
	got := RankCountries(in)
	require.Len(t, got, 15)
	assert.Equal(t, 39, got[0].Count)
	assert.Equal(t, 25, got[14].Count)
}

func TestMatchServicesSubstring(t *testing.T) {
	all := []provider.Service{
		{Code: "tg", Name: "Telegram"},
		{Code: "wa", Name: "WhatsApp"},
		{Code: "go", Name: "Google"},
	}
	got := MatchServices(all, "tele")
	require.Len(t, got, 1)
	assert.Equal(t, "tg", got[0].Code)
}

func TestMatchServicesCaseInsensitive(t *testing.T) {
	all := []provider.Service{{Code: "TG", Name: "Telegram"}}
	assert.Len(t, MatchServices(all, "TELEGRAM"), 1)
	assert.Len(t, MatchServices(all, "tg"), 1)
}

func TestMatchServicesMatchesCodeToo(t *testing.T) {
	all := []provider.Service{{Code: "ig", Name: "Instagram"}}
	got := MatchServices(all, "ig")
	require.Len(t, got, 1)
}

func TestMatchServicesCapAndOrder(t *testing.T) {
	var all []provider.Service
	for i := 0; i < 30; i++ {
		all = append(all, provider.Service{Code: fmt.Sprintf("svc%02d", i), Name: "Service"})
	}
	got := MatchServices(all, "svc")
	require.Len(t, got, 20)
	assert.Equal(t, "svc00", got[0].Code)
	assert.Equal(t, "svc19", got[19].Code)
}

func TestMatchServicesEmptyQuery(t *testing.T) {
	all := []provider.Service{{Code: "tg", Name: "Telegram"}}
	assert.Empty(t, MatchServices(all, ""))
	assert.Empty(t, MatchServices(all, "   "))
}
