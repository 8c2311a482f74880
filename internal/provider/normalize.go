package provider

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// The provider returns differently shaped payloads for the same logical query.
// Normalization decodes into a generic JSON value first and pattern-matches by
// structural shape; a payload matching no shape degrades to an empty sequence
// rather than an error, and malformed entries inside a matched shape are
// skipped. Numeric fields default to zero when absent; status strings are
// passed through verbatim.

// TopCountriesFromJSON normalizes a country-availability payload. Three shapes
// are recognized, checked in this order:
//
//  1. an object keyed by numeric-string indices, each value an object with
//     country/price/count, iterated in ascending numeric key order;
//  2. an object keyed by the service code, whose value is the sequence;
//  3. an array: taken directly when every element carries a country field,
//     otherwise the first nested sequence inside its first element.
func TopCountriesFromJSON(raw []byte, service string) []CountryAvailability {
	v, ok := decodeAny(raw)
	if !ok {
		return nil
	}

	switch data := v.(type) {
	case map[string]any:
		if keys, ok := numericKeys(data); ok {
			var out []CountryAvailability
			for _, k := range keys {
				entry, ok := availabilityEntry(data[k])
				if !ok {
					continue
				}
				out = append(out, entry)
			}
			return out
		}
		if arr, ok := data[service].([]any); ok {
			return availabilityList(arr)
		}
	case []any:
		if allHaveCountry(data) {
			return availabilityList(data)
		}
		if len(data) > 0 {
			first, ok := data[0].(map[string]any)
			if !ok {
				return nil
			}
			if arr, ok := first[service].([]any); ok {
				return availabilityList(arr)
			}
			for _, k := range sortedKeys(first) {
				if arr, ok := first[k].([]any); ok {
					return availabilityList(arr)
				}
			}
		}
	}
	return nil
}

// ServicesFromJSON extracts the service list from its success wrapper.
// Absence of the wrapper or list yields an empty sequence.
func ServicesFromJSON(raw []byte) []Service {
	items := wrappedList(raw, "services")
	var out []Service
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		code := coerceString(obj["code"])
		if code == "" {
			continue
		}
		out = append(out, Service{Code: code, Name: coerceString(obj["name"])})
	}
	return out
}

// CountriesFromJSON normalizes the country reference list, which the provider
// returns either as an array of objects or as an object keyed by index.
func CountriesFromJSON(raw []byte) []Country {
	v, ok := decodeAny(raw)
	if !ok {
		return nil
	}

	var items []any
	switch data := v.(type) {
	case []any:
		items = data
	case map[string]any:
		for _, k := range sortedKeys(data) {
			items = append(items, data[k])
		}
	default:
		return nil
	}

	var out []Country
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, ok := coerceInt(obj["id"])
		if !ok {
			continue
		}
		name := coerceString(obj["eng"])
		if name == "" {
			continue
		}
		out = append(out, Country{ID: id, Name: name})
	}
	return out
}

// ActiveActivationsFromJSON extracts the active-activation list from its
// success wrapper.
func ActiveActivationsFromJSON(raw []byte) []ActiveActivation {
	items := wrappedList(raw, "activeActivations")
	var out []ActiveActivation
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id := coerceString(obj["activationId"])
		if id == "" {
			continue
		}
		out = append(out, ActiveActivation{
			ID:      id,
			Service: coerceString(obj["serviceCode"]),
			Phone:   coerceString(obj["phoneNumber"]),
			Cost:    coerceDecimal(obj["activationCost"]),
			Status:  coerceString(obj["activationStatus"]),
			SMSCode: coerceString(obj["smsCode"]),
		})
	}
	return out
}

// HistoryFromJSON extracts the rental history list from its success wrapper.
func HistoryFromJSON(raw []byte) []HistoryEntry {
	items := wrappedList(raw, "list")
	var out []HistoryEntry
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id := coerceString(obj["id"])
		if id == "" {
			continue
		}
		out = append(out, HistoryEntry{
			ID:      id,
			Date:    coerceString(obj["date"]),
			Phone:   coerceString(obj["phone"]),
			Service: coerceString(obj["service"]),
			Cost:    coerceDecimal(obj["cost"]),
			Status:  coerceString(obj["status"]),
		})
	}
	return out
}

// wrappedList returns the named list from a {"status":"success", ...} wrapper,
// or nil when the wrapper, status, or list is missing.
func wrappedList(raw []byte, key string) []any {
	v, ok := decodeAny(raw)
	if !ok {
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	if coerceString(obj["status"]) != "success" {
		return nil
	}
	items, _ := obj[key].([]any)
	return items
}

func decodeAny(raw []byte) (any, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

// numericKeys reports whether every key of the object is a numeric string and
// returns the keys in ascending numeric order.
func numericKeys(obj map[string]any) ([]string, bool) {
	if len(obj) == 0 {
		return nil, false
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		if _, err := strconv.Atoi(k); err != nil {
			return nil, false
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a < b
	})
	return keys, true
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func allHaveCountry(items []any) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return false
		}
		if _, ok := obj["country"]; !ok {
			return false
		}
	}
	return true
}

func availabilityList(items []any) []CountryAvailability {
	var out []CountryAvailability
	for _, item := range items {
		entry, ok := availabilityEntry(item)
		if !ok {
			continue
		}
		out = append(out, entry)
	}
	return out
}

func availabilityEntry(v any) (CountryAvailability, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return CountryAvailability{}, false
	}
	rawCountry, ok := obj["country"]
	if !ok {
		return CountryAvailability{}, false
	}
	id, ok := coerceInt(rawCountry)
	if !ok {
		return CountryAvailability{}, false
	}
	count, _ := coerceInt(obj["count"])
	return CountryAvailability{
		CountryID: id,
		Price:     coerceDecimal(obj["price"]),
		Count:     count,
	}, true
}

func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	}
	return ""
}

func coerceInt(v any) (int, bool) {
	switch t := v.(type) {
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func coerceDecimal(v any) decimal.Decimal {
	switch t := v.(type) {
	case json.Number:
		if d, err := decimal.NewFromString(t.String()); err == nil {
			return d
		}
	case string:
		if d, err := decimal.NewFromString(t); err == nil {
			return d
		}
	}
	return decimal.Zero
}
