package geo

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Recognized administrative prefixes. Input that already carries one of these
// is considered canonical and passes through unchanged.
var (
	districtPrefixes = []string{"Quận", "Huyện", "Thành phố", "Thị xã"}
	wardPrefixes     = []string{"Phường", "Xã", "Thị trấn", "Đặc khu"}
)

// StripDiacritics removes Vietnamese diacritical marks from s.
// "Phường" becomes "Phuong", "Đà Nẵng" becomes "Da Nang".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	out = strings.ReplaceAll(out, "đ", "d")
	out = strings.ReplaceAll(out, "Đ", "D")
	return out
}

// foldKey normalizes s into a lookup key: diacritics stripped, lower-cased,
// interior whitespace collapsed.
func foldKey(s string) string {
	return strings.ToLower(StripDiacritics(strings.Join(strings.Fields(s), " ")))
}

// CanonicalizeProvince resolves a free-text province name, including any
// pre-reorganization name, to its current canonical form. Resolution is case-
// and diacritic-insensitive. Unknown input passes through unchanged so that a
// name missing from the reference dataset never blocks an order.
func CanonicalizeProvince(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return ""
	}
	key := foldKey(trimProvincePrefix(name))
	if canonical, ok := provinceByKey[key]; ok {
		return canonical
	}
	if canonical, ok := provinceAliasByKey[key]; ok {
		return canonical
	}
	return name
}

// trimProvincePrefix drops a leading "Tỉnh"/"TP"/"Thành phố" qualifier so
// "Tỉnh Hòa Bình" and "Hòa Bình" resolve identically. City names that carry
// "Thành phố" as part of their canonical form are restored by the lookup.
func trimProvincePrefix(name string) string {
	folded := strings.ToLower(StripDiacritics(strings.TrimSpace(name)))
	runesIn := []rune(strings.TrimSpace(name))
	for _, p := range []string{"tinh ", "thanh pho ", "tp. ", "tp "} {
		if strings.HasPrefix(folded, p) && len(runesIn) > len(p) {
			return strings.TrimSpace(string(runesIn[len(p):]))
		}
	}
	return name
}

// CanonicalizeDistrict rewrites a district name with its full administrative
// prefix. Input already carrying a recognized prefix passes through;
// abbreviations such as "Q.", "q1", "H." and "TP" are expanded; anything else
// gets the default "Quận" prefix.
func CanonicalizeDistrict(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return ""
	}
	if canonical, ok := rewritePrefixed(name, districtPrefixes); ok {
		return canonical
	}
	if rest, ok := matchAbbrev(name, "q"); ok {
		return "Quận " + rest
	}
	if rest, ok := matchAbbrev(name, "h"); ok {
		return "Huyện " + rest
	}
	if rest, ok := matchAbbrev(name, "tp"); ok {
		return "Thành phố " + rest
	}
	if rest, ok := matchAbbrev(name, "tx"); ok {
		return "Thị xã " + rest
	}
	return "Quận " + name
}

// CanonicalizeWard rewrites a ward name with its full administrative prefix,
// by the same rules as CanonicalizeDistrict. The default prefix is "Phường".
func CanonicalizeWard(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return ""
	}
	if canonical, ok := rewritePrefixed(name, wardPrefixes); ok {
		return canonical
	}
	if rest, ok := matchAbbrev(name, "p"); ok {
		return "Phường " + rest
	}
	if rest, ok := matchAbbrev(name, "x"); ok {
		return "Xã " + rest
	}
	if rest, ok := matchAbbrev(name, "tt"); ok {
		return "Thị trấn " + rest
	}
	return "Phường " + name
}

// rewritePrefixed detects a recognized full prefix, with or without
// diacritics, and returns the name rewritten with the canonical prefix
// spelling. "quan 1" becomes "Quận 1"; "Quận 1" is returned as-is.
func rewritePrefixed(name string, prefixes []string) (string, bool) {
	key := foldKey(name)
	for _, prefix := range prefixes {
		pk := foldKey(prefix)
		if key == pk {
			return prefix, true
		}
		if strings.HasPrefix(key, pk+" ") {
			rest := strings.TrimSpace(skipFoldedPrefix(name, pk))
			return prefix + " " + rest, true
		}
	}
	return "", false
}

// skipFoldedPrefix removes the leading runes of name whose folded form equals
// foldedPrefix. Needed because the raw prefix may be spelled with or without
// diacritics and in any case.
func skipFoldedPrefix(name, foldedPrefix string) string {
	runesIn := []rune(strings.TrimSpace(name))
	want := len([]rune(foldedPrefix))
	if len(runesIn) <= want {
		return ""
	}
	return string(runesIn[want:])
}

// matchAbbrev detects abbreviation forms like "q1", "q.1", "Q. 1", "H.Củ Chi"
// for the given abbreviation and returns the remainder with its original
// spelling intact. A bare match with no remainder is rejected.
func matchAbbrev(name, abbrev string) (string, bool) {
	orig := strings.TrimSpace(name)
	// Fold without collapsing whitespace so rune offsets line up with orig.
	folded := strings.ToLower(StripDiacritics(orig))
	if !strings.HasPrefix(folded, abbrev) {
		return "", false
	}
	tail := folded[len(abbrev):]
	if tail == "" {
		return "", false
	}
	switch {
	case tail[0] == '.', tail[0] == ' ':
	case tail[0] >= '0' && tail[0] <= '9':
	default:
		return "", false
	}
	runesOrig := []rune(orig)
	rest := strings.TrimSpace(strings.TrimPrefix(string(runesOrig[len(abbrev):]), "."))
	if rest == "" {
		return "", false
	}
	return rest, true
}

// NormalizeHouseNumber gives a bare house number its "Số" prefix.
// "17" becomes "Số 17"; "Số 17" and named buildings pass through.
func NormalizeHouseNumber(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if startsWithDigit(s) {
		return "Số " + s
	}
	return s
}

// NormalizeHamlet gives a bare hamlet number its "Tổ" prefix. Named hamlet
// forms ("Ấp 3", "Thôn Trung", "Khu phố 5", "Xóm Chùa") pass through.
func NormalizeHamlet(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if startsWithDigit(s) {
		return "Tổ " + s
	}
	return s
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
