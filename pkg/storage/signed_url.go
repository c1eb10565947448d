package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidSignature is returned for malformed or tampered download tokens.
	ErrInvalidSignature = errors.New("invalid download token")
	// ErrSignatureExpired is returned when a download token is past its expiry.
	ErrSignatureExpired = errors.New("download token expired")
)

// SignedObject is the metadata carried by a download token.
type SignedObject struct {
	ReportID  string
	Path      string
	ExpiresAt time.Time
}

// SignedURLSigner issues and verifies HMAC-SHA256 download tokens of the form
// reportID.expiry.base64(path).signature.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token granting access to path for the configured TTL.
func (s *SignedURLSigner) Sign(reportID, path string) (string, time.Time, error) {
	if reportID == "" || path == "" {
		return "", time.Time{}, fmt.Errorf("report id and path required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).UTC().Truncate(time.Second)
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(path))
	token := strings.Join([]string{reportID, ts, encodedPath, s.mac(reportID, ts, encodedPath)}, ".")
	return token, expiresAt, nil
}

// Verify checks the token signature and expiry.
func (s *SignedURLSigner) Verify(token string) (SignedObject, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return SignedObject{}, ErrInvalidSignature
	}
	reportID, ts, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.mac(reportID, ts, encodedPath)), []byte(signature)) {
		return SignedObject{}, ErrInvalidSignature
	}
	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return SignedObject{}, ErrInvalidSignature
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return SignedObject{}, ErrInvalidSignature
	}
	obj := SignedObject{ReportID: reportID, Path: string(rawPath), ExpiresAt: time.Unix(expUnix, 0).UTC()}
	if s.now().After(obj.ExpiresAt) {
		return obj, ErrSignatureExpired
	}
	return obj, nil
}

func (s *SignedURLSigner) mac(reportID, ts, encodedPath string) string {
	h := hmac.New(sha256.New, s.secret)
	_, _ = h.Write([]byte(reportID + "|" + ts + "|" + encodedPath))
	return hex.EncodeToString(h.Sum(nil))
}
