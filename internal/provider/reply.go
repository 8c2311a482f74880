package provider

import "strings"

// Marker is a recognized prefix in a plain-text provider reply. The set is
// open ended: replies that match none of the known prefixes keep MarkerUnknown
// and their raw text intact, so nothing the provider says is ever lost.
type Marker string

const (
	MarkerBalance   Marker = "ACCESS_BALANCE"
	MarkerNumber    Marker = "ACCESS_NUMBER"
	MarkerNoNumbers Marker = "NO_NUMBERS"
	MarkerNoBalance Marker = "NO_BALANCE"
	MarkerCodeReady Marker = "STATUS_OK"
	MarkerWaitCode  Marker = "STATUS_WAIT_CODE"
	MarkerCancelled Marker = "ACCESS_CANCEL"
	MarkerReady     Marker = "ACCESS_READY"
	MarkerBadKey    Marker = "BAD_KEY"
	MarkerUnknown   Marker = ""
)

// knownMarkers is ordered so that longer prefixes are tested before their
// shorter overlaps (STATUS_WAIT_CODE before STATUS_OK is not required, but
// ACCESS_* prefixes share a stem).
var knownMarkers = []Marker{
	MarkerBalance,
	MarkerNumber,
	MarkerNoNumbers,
	MarkerNoBalance,
	MarkerWaitCode,
	MarkerCodeReady,
	MarkerCancelled,
	MarkerReady,
	MarkerBadKey,
}

// Reply is a parsed colon-delimited provider status line, e.g.
// "ACCESS_NUMBER:12345:+48600000000" or a bare "NO_NUMBERS".
type Reply struct {
	Marker Marker
	Fields []string
	Raw    string
}

// Field returns the i-th colon-separated payload field or "".
func (r Reply) Field(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return ""
	}
	return r.Fields[i]
}

// ParseReply matches a plain-text reply against the known marker set.
func ParseReply(text string) Reply {
	raw := strings.TrimSpace(text)
	for _, m := range knownMarkers {
		if !strings.HasPrefix(raw, string(m)) {
			continue
		}
		rest := raw[len(m):]
		var fields []string
		if strings.HasPrefix(rest, ":") {
			fields = strings.Split(rest[1:], ":")
		}
		return Reply{Marker: m, Fields: fields, Raw: raw}
	}
	return Reply{Marker: MarkerUnknown, Raw: raw}
}
