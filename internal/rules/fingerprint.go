package rules

import (
	xxhash "github.com/cespare/xxhash/v2"
)

// Fingerprint returns a stable hash of the rule set's gating-relevant fields.
// The baseline store records it so history produced under a different rule
// set can be flagged as possibly incomparable.
func (rs *RuleSet) Fingerprint() string {
	d := xxhash.New()
	sep := []byte{0}
	for _, r := range rs.Rules {
		_, _ = d.WriteString(r.ID)
		d.Write(sep)
		_, _ = d.WriteString(string(r.Severity))
		d.Write(sep)
		_, _ = d.WriteString(r.Scope)
		d.Write(sep)
		_, _ = d.WriteString(string(r.RequiredMode))
		d.Write(sep)
		for _, p := range r.Forbidden {
			_, _ = d.WriteString("f:" + p.Source)
			d.Write(sep)
		}
		for _, p := range r.Required {
			_, _ = d.WriteString("r:" + p.Source)
			d.Write(sep)
		}
	}
	sum := d.Sum64()
	var buf [16]byte
	const hex = "0123456789abcdef"
	for i := 15; i >= 0; i-- {
		buf[i] = hex[sum&0xF]
		sum >>= 4
	}
	return string(buf[:])
}
