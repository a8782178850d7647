package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Payload is the normalized key/value body of a submission, regardless of
// whether it arrived as JSON or as a multipart "payload" field.
type Payload map[string]any

// String returns the trimmed text value of key. Empty strings count as absent.
func (p Payload) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", false
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(t)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Has reports whether key carries a non-empty value.
func (p Payload) Has(key string) bool {
	_, ok := p.String(key)
	return ok
}

// Float parses key as a float. Absent keys return nil without error.
func (p Payload) Float(key string) (*float64, error) {
	s, ok := p.String(key)
	if !ok {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%s is not a number", key)
	}
	return &f, nil
}

// Int parses key as an integer. Absent keys return nil without error.
func (p Payload) Int(key string) (*int, error) {
	s, ok := p.String(key)
	if !ok {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%s is not an integer", key)
	}
	return &n, nil
}
