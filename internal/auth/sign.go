// Package auth provides Bitget request signing using HMAC-SHA256 signatures,
// and AES-GCM handling for credentials at rest.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"
)

// LoginPath is the canonical path signed for WebSocket logins.
const LoginPath = "/user/verify"

// Credentials holds one user's decrypted venue API credentials.
type Credentials struct {
	APIKey     string
	Secret     string
	Passphrase string
}

// Sign computes base64(HMAC-SHA256(secret, timestamp+method+path+body)).
// timestamp is a unix-millisecond string; body is empty for GET requests.
func Sign(secret, timestamp, method, path, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + method + path + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// LoginSign signs the fixed login string timestamp+"GET"+"/user/verify".
func LoginSign(secret, timestamp string) string {
	return Sign(secret, timestamp, "GET", LoginPath, "")
}

// Timestamp returns the current unix-millisecond timestamp string used in
// signature material.
func Timestamp() string {
	return fmt.Sprintf("%d", time.Now().UnixMilli())
}

// RESTHeaders generates the signed headers for a Bitget REST request.
func (c Credentials) RESTHeaders(timestamp, method, requestPath, body string) map[string]string {
	return map[string]string{
		"ACCESS-KEY":        c.APIKey,
		"ACCESS-SIGN":       Sign(c.Secret, timestamp, method, requestPath, body),
		"ACCESS-PASSPHRASE": c.Passphrase,
		"ACCESS-TIMESTAMP":  timestamp,
		"Content-Type":      "application/json",
	}
}
