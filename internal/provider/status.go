package provider

// The active-activation and history endpoints use different status-code
// vocabularies in observed payloads (status "4" means "code received" in the
// activation list but not elsewhere). The two mappings are kept separate on
// purpose; unknown codes are passed through verbatim since the provider's
// vocabulary is open ended.

var activationStatusLabels = map[string]string{
	"1": "waiting for number",
	"2": "waiting for code",
	"3": "resend requested",
	"4": "code received",
	"5": "cancelled",
}

var historyStatusLabels = map[string]string{
	"1": "cancelled",
	"2": "completed",
	"3": "refunded",
	"4": "expired",
}

// ActivationStatusLabel maps an active-activation status code to a label,
// returning the raw code when it is not recognized.
func ActivationStatusLabel(code string) string {
	if label, ok := activationStatusLabels[code]; ok {
		return label
	}
	return code
}

// HistoryStatusLabel maps a history status code to a label, returning the raw
// code when it is not recognized.
func HistoryStatusLabel(code string) string {
	if label, ok := historyStatusLabels[code]; ok {
		return label
	}
	return code
}
