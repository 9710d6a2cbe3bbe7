//go:build go1.18

package domain

import (
	"testing"
)

// FuzzParseSubjectID tests that parsing never panics on arbitrary input
// and always returns either a valid ID or an error.
func FuzzParseSubjectID(f *testing.F) {
	f.Add("")
	f.Add("387ec43c-6280-11f0-9d8d-4b43610f4997")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE enrollments;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("387ec43c-6280-11f0-9d8d-4b43610f4997\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		sid, err := ParseSubjectID(input)
		if err != nil {
			return
		}
		// Accepted input must round-trip unchanged.
		roundTrip, err2 := ParseSubjectID(sid.String())
		if err2 != nil {
			t.Errorf("valid id failed round-trip: %v", err2)
		}
		if roundTrip != sid {
			t.Error("round-trip changed id value")
		}
	})
}
