package aliexpress

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Sign computes the TOP-style request signature expected by the affiliate
// API: parameters sorted by key, concatenated as key+value with no
// separators, HMAC-SHA256 under the app secret, uppercase hex.
//
// The canonicalization must match the remote scheme bit-for-bit; a wrong
// case or a stray separator fails authentication on every call.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params[k])
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(b.String()))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}
