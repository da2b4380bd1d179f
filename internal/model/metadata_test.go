package model

import "testing"

func TestParseMetadataLenient(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"null literal", "null"},
		{"garbage", "{not json"},
		{"whitespace", "   "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := ParseMetadata(tc.raw)
			if m == nil {
				t.Fatal("expected non-nil metadata")
			}
			if len(m) != 0 {
				t.Fatalf("expected empty metadata, got %v", m)
			}
		})
	}

	m := ParseMetadata(`{"gtin":"00312345678906","rewardPoints":25,"custom":"kept"}`)
	if v, ok := m.GTIN(); !ok || v != "00312345678906" {
		t.Fatalf("gtin = %q, %v", v, ok)
	}
	if _, ok := m["custom"]; !ok {
		t.Fatal("unknown keys must be carried through")
	}
}

func TestMetadataEncode(t *testing.T) {
	if got := (Metadata)(nil).Encode(); got != "{}" {
		t.Fatalf("nil bag encoded as %q", got)
	}
	if got := (Metadata{}).Encode(); got != "{}" {
		t.Fatalf("empty bag encoded as %q", got)
	}
	m := ParseMetadata(Metadata{"serialNumber": "SN-1"}.Encode())
	if v, ok := m.SerialNumber(); !ok || v != "SN-1" {
		t.Fatalf("serial = %q, %v", v, ok)
	}
}

func TestMetadataRewardPoints(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int
		ok   bool
	}{
		{"number", `{"rewardPoints":25}`, 25, true},
		{"numeric string", `{"rewardPoints":"40"}`, 40, true},
		{"padded string", `{"rewardPoints":" 15 "}`, 15, true},
		{"zero", `{"rewardPoints":0}`, 0, true},
		{"negative", `{"rewardPoints":-5}`, 0, false},
		{"non-numeric", `{"rewardPoints":"lots"}`, 0, false},
		{"wrong type", `{"rewardPoints":true}`, 0, false},
		{"absent", `{}`, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseMetadata(tc.raw).RewardPoints()
			if got != tc.want || ok != tc.ok {
				t.Fatalf("RewardPoints() = %d, %v; want %d, %v", got, ok, tc.want, tc.ok)
			}
		})
	}
}
