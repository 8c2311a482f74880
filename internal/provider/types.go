package provider

import "github.com/shopspring/decimal"

// Service is one rentable service as listed by the provider.
// Code is the stable key used in all later calls.
type Service struct {
	Code string
	Name string
}

// CountryAvailability describes one (service, country) offer.
type CountryAvailability struct {
	CountryID int
	Price     decimal.Decimal
	Count     int
}

// Country labels a country id with its English name.
type Country struct {
	ID   int
	Name string
}

// ActiveActivation is one in-flight rental as reported by the provider's
// active-activation list. Status uses the activation-list vocabulary, which is
// distinct from the history vocabulary.
type ActiveActivation struct {
	ID      string
	Service string
	Phone   string
	Cost    decimal.Decimal
	Status  string
	SMSCode string
}

// HistoryEntry is one finished rental from the provider's history list.
// Status uses the history vocabulary.
type HistoryEntry struct {
	ID      string
	Date    string
	Phone   string
	Service string
	Cost    decimal.Decimal
	Status  string
}

// Activation status values for setStatus calls.
const (
	// StatusConfirm reports the code as received and closes out billing.
	StatusConfirm = 6
	// StatusCancel cancels the activation and refunds the rental.
	StatusCancel = 8
)
