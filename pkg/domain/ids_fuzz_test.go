//go:build go1.18

package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseEstateID checks that parsing never panics on arbitrary input and
// that accepted values round-trip unchanged.
func FuzzParseEstateID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE estates;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		estateID, err := ParseEstateID(input)

		if err == nil {
			roundTrip, err2 := ParseEstateID(estateID.String())
			if err2 != nil {
				t.Errorf("valid ID failed round-trip: %v", err2)
			}
			if roundTrip != estateID {
				t.Error("round-trip changed ID value")
			}
		}

		if !utf8.ValidString(input) && err == nil {
			t.Error("non-UTF8 input was accepted")
		}
	})
}

// FuzzParseAllIDs checks that every ID family validates identically.
func FuzzParseAllIDs(f *testing.F) {
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("")
	f.Add("invalid")

	f.Fuzz(func(t *testing.T, input string) {
		_, errEstate := ParseEstateID(input)
		_, errGift := ParseGiftID(input)
		_, errDebt := ParseDebtID(input)
		_, errBequest := ParseBequestID(input)
		_, errPerson := ParsePersonID(input)
		_, errAsset := ParseAssetID(input)

		accepted := errEstate == nil
		for _, err := range []error{errGift, errDebt, errBequest, errPerson, errAsset} {
			if (err == nil) != accepted {
				t.Error("inconsistent parsing across ID types")
				return
			}
		}
	})
}
