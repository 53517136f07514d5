package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_ParamOrderInvariance(t *testing.T) {
	fp1, _ := Fingerprint("https://api.example.com/series?b=2&a=1")
	fp2, _ := Fingerprint("https://api.example.com/series?a=1&b=2")
	assert.Equal(t, fp1, fp2, "fingerprint must be invariant to query parameter order")
}

func TestFingerprint_SecretValueInvariance(t *testing.T) {
	fp1, scrubbed1 := Fingerprint("https://api.example.com/series?series_id=UNRATE&api_key=aaa")
	fp2, scrubbed2 := Fingerprint("https://api.example.com/series?series_id=UNRATE&api_key=bbb")
	assert.Equal(t, fp1, fp2, "fingerprint must be invariant to the secret's value")
	assert.NotContains(t, scrubbed1, "aaa")
	assert.NotContains(t, scrubbed2, "bbb")
}

func TestFingerprint_DistinctRequestsHashDifferently(t *testing.T) {
	fp1, _ := Fingerprint("https://api.example.com/series?series_id=UNRATE")
	fp2, _ := Fingerprint("https://api.example.com/series?series_id=GDP")
	assert.NotEqual(t, fp1, fp2)
}

func TestFingerprint_VolatileParamsDropped(t *testing.T) {
	fp1, _ := Fingerprint("https://api.example.com/series?series_id=UNRATE&timestamp=1")
	fp2, _ := Fingerprint("https://api.example.com/series?series_id=UNRATE&timestamp=2")
	assert.Equal(t, fp1, fp2, "volatile params must not affect the fingerprint")
}
