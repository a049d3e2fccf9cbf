package geo

import (
	"strings"
)

// Address is a transient value object describing a Vietnamese delivery
// address in the canonical post-reorganization naming scheme. It is never
// persisted; it exists only as an argument to the carrier gateway.
type Address struct {
	Province    string
	District    string
	Ward        string
	Street      string
	Hamlet      string
	HouseNumber string
}

// FullStreet composes house number, hamlet and street into the single
// street line the carrier expects, in that fixed order.
func (a Address) FullStreet() string {
	parts := make([]string, 0, 3)
	if hn := NormalizeHouseNumber(a.HouseNumber); hn != "" {
		parts = append(parts, hn)
	}
	if h := NormalizeHamlet(a.Hamlet); h != "" {
		parts = append(parts, h)
	}
	if s := strings.TrimSpace(a.Street); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

// IsZero reports whether the address carries no information
func (a Address) IsZero() bool {
	return a.Province == "" && a.District == "" && a.Ward == "" &&
		a.Street == "" && a.Hamlet == "" && a.HouseNumber == ""
}

// Canonicalize returns the address with province, district and ward rewritten
// to their canonical carrier-accepted forms. The operation is idempotent:
// canonicalizing an already-canonical address returns it unchanged.
func Canonicalize(a Address) Address {
	a.Province = CanonicalizeProvince(a.Province)
	a.District = CanonicalizeDistrict(a.District)
	a.Ward = CanonicalizeWard(a.Ward)
	a.Street = strings.TrimSpace(a.Street)
	a.Hamlet = NormalizeHamlet(a.Hamlet)
	a.HouseNumber = NormalizeHouseNumber(a.HouseNumber)
	return a
}
