package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Metadata is the product's descriptive JSON bag. Known keys get typed
// accessors below; everything else is carried through untouched so that
// dashboard-written fields survive a round trip through this service.
type Metadata map[string]any

// ParseMetadata decodes the metadata column. An empty or null column yields
// an empty, non-nil bag; malformed JSON is treated the same way rather than
// failing the surrounding operation.
func ParseMetadata(raw string) Metadata {
	m := Metadata{}
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return m
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return Metadata{}
	}
	return m
}

// Encode serializes the bag for storage. A nil or empty bag encodes as "{}".
func (m Metadata) Encode() string {
	if len(m) == 0 {
		return "{}"
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// RewardPoints returns the per-product reward override when present and
// parseable as a non-negative integer. Dashboards have historically written
// this key as a number or a numeric string, so both are accepted.
func (m Metadata) RewardPoints() (int, bool) {
	v, ok := m["rewardPoints"]
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		if t < 0 {
			return 0, false
		}
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// GTIN returns the pharma GTIN when present.
func (m Metadata) GTIN() (string, bool) { return m.str("gtin") }

// SerialNumber returns the pharma serial number when present.
func (m Metadata) SerialNumber() (string, bool) { return m.str("serialNumber") }

func (m Metadata) str(key string) (string, bool) {
	if v, ok := m[key].(string); ok && v != "" {
		return v, true
	}
	return "", false
}
