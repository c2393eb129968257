package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const SignatureHeader = "X-Payment-Signature"

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func validHMAC(secret, signature string, body []byte) bool {
	expected := Sign(secret, body)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

// sharedSecret checks the X-Payment-Signature style used by the mock and generic adapters.
type sharedSecret struct {
	secret   string
	header   string
	required bool
}

func (v sharedSecret) verify(headers http.Header, body []byte) error {
	if v.secret == "" {
		if v.required {
			return fmt.Errorf("%w: no webhook secret configured", ErrInvalidSignature)
		}
		return nil
	}

	signature := headers.Get(v.header)
	if signature == "" {
		return fmt.Errorf("%w: missing %s", ErrInvalidSignature, v.header)
	}
	if !validHMAC(v.secret, signature, body) {
		return ErrInvalidSignature
	}
	return nil
}

// verifyStripeSignature checks a "t=...,v1=..." header over "t.body".
func verifyStripeSignature(secret, header string, body []byte, now time.Time, tolerance time.Duration) error {
	if secret == "" {
		return fmt.Errorf("%w: no webhook secret configured", ErrInvalidSignature)
	}

	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return fmt.Errorf("%w: malformed Stripe-Signature", ErrInvalidSignature)
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
	}
	if tolerance > 0 && now.Sub(time.Unix(ts, 0)).Abs() > tolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}

	signed := append([]byte(timestamp+"."), body...)
	for _, sig := range signatures {
		if validHMAC(secret, sig, signed) {
			return nil
		}
	}
	return ErrInvalidSignature
}
