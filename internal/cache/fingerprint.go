package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// secretParams are query keys stripped before hashing. The placeholder
// keeps the fingerprint provider-specific while never leaking the secret
// itself into the cache key or logs.
var secretParams = map[string]bool{
	"api_key": true, "apikey": true, "key": true, "token": true,
	"access_token": true, "access_key": true, "app_id": true, "subscription-key": true,
}

// volatileParams are dropped outright rather than placeholdered, since they
// vary per call without affecting the data returned.
var volatileParams = map[string]bool{
	"nonce": true, "request_id": true, "_": true, "timestamp": true,
}

// Fingerprint computes the RequestFingerprint for an upstream request: a
// canonical digest of the normalized, sorted, secret-scrubbed URL. Two
// requests differing only in parameter order or secret value hash equal.
func Fingerprint(rawURL string) (fingerprint string, scrubbedURL string) {
	u, err := url.Parse(rawURL)
	if err != nil {
 sum := sha256.Sum256([]byte(strings.ToLower(rawURL)))
 return hex.EncodeToString(sum[:]), rawURL
	}

	q := u.Query()
	keys := make([]string, 0, len(q))
	for k := range q {
 keys = append(keys, k)
	}
	sort.Strings(keys)

	normalized := url.Values{}
	for _, k := range keys {
 lk := strings.ToLower(k)
 if volatileParams[lk] {
 continue
 }
 if secretParams[lk] {
 normalized.Set(k, "***")
 continue
 }
 vals := append([]string(nil), q[k]...)
 sort.Strings(vals)
 for _, v := range vals {
 normalized.Add(k, v)
 }
	}

	canonical := strings.ToLower(u.Scheme+"://"+u.Host+u.Path) + "?" + normalized.Encode()
	sum := sha256.Sum256([]byte(canonical))

	scrubbed := *u
	scrubbed.RawQuery = normalized.Encode()
	return hex.EncodeToString(sum[:]), scrubbed.String()
}

// FingerprintText computes a fingerprint over free text plus a context tail
// hash, used by the intent resolver's own cache lookup.
func FingerprintText(parts...string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.Join(parts, "\x1f"))))
	return hex.EncodeToString(sum[:])
}
