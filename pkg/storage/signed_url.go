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
	// ErrInvalidToken covers malformed tokens and signature mismatches.
	ErrInvalidToken = errors.New("invalid download token")
	// ErrTokenExpired is returned for well-signed tokens past their expiry.
	ErrTokenExpired = errors.New("download token expired")
)

// DownloadClaims are the facts a download token vouches for.
type DownloadClaims struct {
	JobID     string
	Path      string
	ExpiresAt time.Time
}

// SignedURLSigner issues HMAC-SHA256 download tokens of the form
// jobID.expiry.base64(path).signature.
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

// TTL returns how long issued tokens stay valid.
func (s *SignedURLSigner) TTL() time.Duration { return s.ttl }

// Generate returns a token for the job's stored file.
func (s *SignedURLSigner) Generate(jobID, path string) (string, time.Time, error) {
	if jobID == "" || path == "" {
		return "", time.Time{}, fmt.Errorf("jobID and path required")
	}
	if strings.Contains(jobID, ".") {
		return "", time.Time{}, fmt.Errorf("jobID must not contain dots")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(path))
	token := strings.Join([]string{jobID, exp, encodedPath, s.sign(jobID, exp, encodedPath)}, ".")
	return token, expiresAt, nil
}

// Parse validates a token. allowExpired skips the expiry check for cleanup.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (*DownloadClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return nil, ErrInvalidToken
	}
	jobID, exp, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.sign(jobID, exp, encodedPath)), []byte(signature)) {
		return nil, ErrInvalidToken
	}
	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims := &DownloadClaims{JobID: jobID, Path: string(rawPath), ExpiresAt: time.Unix(expUnix, 0)}
	if !allowExpired && s.now().After(claims.ExpiresAt) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

func (s *SignedURLSigner) sign(jobID, exp, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(jobID + "|" + exp + "|" + encodedPath))
	return hex.EncodeToString(mac.Sum(nil))
}
