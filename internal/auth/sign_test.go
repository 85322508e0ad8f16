package auth

import (
	"strconv"
	"testing"
	"time"
)

func TestSign_KnownVectors(t *testing.T) {
	tests := []struct {
		name      string
		secret    string
		timestamp string
		method    string
		path      string
		body      string
		want      string
	}{
		{
			name:      "login string",
			secret:    "test-secret",
			timestamp: "1700000000000",
			method:    "GET",
			path:      "/user/verify",
			want:      "fh1tVj+qVXA8lGcfZg4ebfuPmbtZxK7+nAYywuwTeAo=",
		},
		{
			name:      "rest path with query",
			secret:    "test-secret",
			timestamp: "1700000000000",
			method:    "GET",
			path:      "/api/v2/earn/account/assets?coin=BTC",
			want:      "4pJsLo4fFvYuZkSrHdTb6H0l6g3iuTEYqWKmOKH+nbI=",
		},
		{
			name:      "with body",
			secret:    "s3cr3t",
			timestamp: "1700000000000",
			method:    "POST",
			path:      "/api/v2/spot/trade",
			body:      `{"a":1}`,
			want:      "INqOF1bXGzkBJMLBopLk5CSwamHrrM0ehdXczda0IoM=",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sign(tt.secret, tt.timestamp, tt.method, tt.path, tt.body)
			if got != tt.want {
				t.Errorf("Sign = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginSign_MatchesFixedPath(t *testing.T) {
	got := LoginSign("test-secret", "1700000000000")
	want := Sign("test-secret", "1700000000000", "GET", "/user/verify", "")
	if got != want {
		t.Errorf("LoginSign = %q, want %q", got, want)
	}
}

func TestTimestamp_UnixMillis(t *testing.T) {
	before := time.Now().UnixMilli()
	ts := Timestamp()
	after := time.Now().UnixMilli()

	n, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		t.Fatalf("Timestamp() = %q, not an integer: %v", ts, err)
	}
	if n < before || n > after {
		t.Errorf("Timestamp() = %d, want between %d and %d", n, before, after)
	}
}

func TestRESTHeaders(t *testing.T) {
	creds := Credentials{APIKey: "key", Secret: "test-secret", Passphrase: "phrase"}
	headers := creds.RESTHeaders("1700000000000", "GET", "/api/v2/earn/account/assets?coin=BTC", "")

	if headers["ACCESS-KEY"] != "key" {
		t.Errorf("ACCESS-KEY = %q, want key", headers["ACCESS-KEY"])
	}
	if headers["ACCESS-PASSPHRASE"] != "phrase" {
		t.Errorf("ACCESS-PASSPHRASE = %q, want phrase", headers["ACCESS-PASSPHRASE"])
	}
	if headers["ACCESS-TIMESTAMP"] != "1700000000000" {
		t.Errorf("ACCESS-TIMESTAMP = %q", headers["ACCESS-TIMESTAMP"])
	}
	if headers["ACCESS-SIGN"] != "4pJsLo4fFvYuZkSrHdTb6H0l6g3iuTEYqWKmOKH+nbI=" {
		t.Errorf("ACCESS-SIGN = %q, wrong signature", headers["ACCESS-SIGN"])
	}
}
