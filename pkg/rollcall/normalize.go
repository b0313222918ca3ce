package rollcall

import "strings"

// NormalizeID canonicalizes a roll-call identifier. Identifiers appear in
// two forms, a bare token ("2152544") and a suffixed one ("2152544-73"),
// both referring to the same roll call. NormalizeID strips the first hyphen
// and everything after it, so both forms map to the same join key. It is
// total and idempotent; an empty identifier normalizes to an empty string.
func NormalizeID(raw string) string {
	if raw == "" {
		return ""
	}
	if i := strings.IndexByte(raw, '-'); i >= 0 {
		return raw[:i]
	}
	return raw
}
