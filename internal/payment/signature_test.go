package payment

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSign(t *testing.T) {
	// echo -n 'hello' | openssl dgst -sha256 -hmac 'secret'
	assert.Equal(t, "88aab3ede8d3adf94d26ab90d3bafd4a2083070c3bcce9c014ee04a443847c0b", Sign("secret", []byte("hello")))
}

func TestSharedSecret(t *testing.T) {
	body := []byte(`{"orderId":"o1"}`)
	headers := func(sig string) http.Header {
		h := http.Header{}
		if sig != "" {
			h.Set(SignatureHeader, sig)
		}
		return h
	}

	v := sharedSecret{secret: "s3cret", header: SignatureHeader, required: true}
	assert.NoError(t, v.verify(headers(Sign("s3cret", body)), body))
	assert.NoError(t, v.verify(headers(" "+strings.ToUpper(Sign("s3cret", body))), body))
	assert.ErrorIs(t, v.verify(headers(Sign("other", body)), body), ErrInvalidSignature)
	assert.ErrorIs(t, v.verify(headers(""), body), ErrInvalidSignature)
	assert.ErrorIs(t, v.verify(headers(Sign("s3cret", body)), []byte(`{"orderId":"o2"}`)), ErrInvalidSignature)

	noSecret := sharedSecret{header: SignatureHeader, required: true}
	assert.ErrorIs(t, noSecret.verify(headers(""), body), ErrInvalidSignature)

	optional := sharedSecret{header: SignatureHeader}
	assert.NoError(t, optional.verify(headers(""), body))
}

func stripeHeader(secret string, ts time.Time, body []byte) string {
	stamp := strconv.FormatInt(ts.Unix(), 10)
	return fmt.Sprintf("t=%s,v1=%s", stamp, Sign(secret, append([]byte(stamp+"."), body...)))
}

func TestVerifyStripeSignature(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	now := time.Unix(1700000000, 0)

	require.NoError(t, verifyStripeSignature("whsec", stripeHeader("whsec", now, body), body, now, 5*time.Minute))
	// several v1 entries are allowed during secret rotation
	rotated := stripeHeader("whsec", now, body) + ",v1=deadbeef"
	require.NoError(t, verifyStripeSignature("whsec", rotated, body, now, 5*time.Minute))

	tests := []struct {
		name   string
		secret string
		header string
		now    time.Time
	}{
		{"wrong secret", "whsec", stripeHeader("other", now, body), now},
		{"too old", "whsec", stripeHeader("whsec", now, body), now.Add(10 * time.Minute)},
		{"malformed", "whsec", "garbage", now},
		{"bad timestamp", "whsec", "t=abc,v1=00", now},
		{"no secret", "", stripeHeader("", now, body), now},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifyStripeSignature(tt.secret, tt.header, body, tt.now, 5*time.Minute)
			assert.ErrorIs(t, err, ErrInvalidSignature)
		})
	}

	// zero tolerance skips the age check
	assert.NoError(t, verifyStripeSignature("whsec", stripeHeader("whsec", now, body), body, now.Add(24*time.Hour), 0))
}

func TestNormalizeStatus(t *testing.T) {
	tests := map[string]Status{
		"paid":      StatusPaid,
		"SUCCESS":   StatusPaid,
		" settled ": StatusPaid,
		"declined":  StatusFailed,
		"Canceled":  StatusFailed,
		"pending":   StatusProcessing,
		"refunded":  StatusUnknown,
		"":          StatusUnknown,
	}
	for word, want := range tests {
		assert.Equal(t, want, NormalizeStatus(word), word)
	}
}
