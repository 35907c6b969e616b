// Package symbol normalizes trading pair identifiers. The canonical form is
// "BASE-QUOTE" in upper case (e.g. "BTC-USDT"), matching configuration files;
// exchange-specific formats are derived from it.
package symbol

import "strings"

// Normalize converts "btc/usdt", "BTCUSDT-ish" separators etc. into the
// canonical "BTC-USDT" form. Returns "" for input it cannot interpret.
func Normalize(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "_", "-")
	parts := strings.Split(s, "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return parts[0] + "-" + parts[1]
}

// Split returns the base and quote assets of a canonical pair.
func Split(pair string) (base, quote string) {
	parts := strings.SplitN(Normalize(pair), "-", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return parts[0], parts[1]
}

// Base returns the base asset of a canonical pair ("BTC" for "BTC-USDT").
func Base(pair string) string {
	b, _ := Split(pair)
	return b
}

// Quote returns the quote asset of a canonical pair ("USDT" for "BTC-USDT").
func Quote(pair string) string {
	_, q := Split(pair)
	return q
}
