// internal/core/domain/reconciliation/verifier.go
package reconciliation

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
)

// Verifier проверяет подлинность callback до разбора тела
type Verifier interface {
	Verify(headers http.Header, body []byte) error
}

// NoopVerifier принимает любой callback
type NoopVerifier struct{}

func (NoopVerifier) Verify(http.Header, []byte) error { return nil }

// HMACVerifier ожидает hex(HMAC-SHA256(secret, body)) в заголовке.
// Допускается префикс "sha256=".
type HMACVerifier struct {
	secret []byte
	header string
}

func NewHMACVerifier(secret, header string) *HMACVerifier {
	if header == "" {
		header = "X-Signature"
	}
	return &HMACVerifier{secret: []byte(secret), header: header}
}

func (v *HMACVerifier) Verify(headers http.Header, body []byte) error {
	got := strings.TrimPrefix(strings.TrimSpace(headers.Get(v.header)), "sha256=")
	if got == "" {
		return fmt.Errorf("%w: missing %s header", ErrUnauthorized, v.header)
	}

	sig, err := hex.DecodeString(got)
	if err != nil {
		return fmt.Errorf("%w: signature is not hex", ErrUnauthorized)
	}

	if !hmac.Equal(sig, v.expected(body)) {
		return fmt.Errorf("%w: signature mismatch", ErrUnauthorized)
	}
	return nil
}

// Sign возвращает подпись тела в hex, удобно для тестов и ручной отладки
func (v *HMACVerifier) Sign(body []byte) string {
	return hex.EncodeToString(v.expected(body))
}

func (v *HMACVerifier) expected(body []byte) []byte {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return mac.Sum(nil)
}
