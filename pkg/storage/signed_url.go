package storage

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTokenInvalid = errors.New("download token is invalid")
	ErrTokenExpired = errors.New("download token has expired")
	errNoSecret     = errors.New("signing secret missing")
)

const defaultLinkTTL = 24 * time.Hour

// LinkClaims is what a download token grants: the file at Path, on behalf
// of Subject, until ExpiresAt.
type LinkClaims struct {
	Subject   string
	Path      string
	ExpiresAt time.Time
}

// SignedURLSigner issues and verifies HMAC-SHA256 download tokens. A token is
// base64url(subject NUL expiry NUL path) "." base64url(mac).
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = defaultLinkTTL
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate binds subject to relPath for the signer's TTL.
func (s *SignedURLSigner) Generate(subject, relPath string) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, errNoSecret
	}
	if subject == "" || relPath == "" || strings.ContainsRune(subject+relPath, 0) {
		return "", time.Time{}, ErrTokenInvalid
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	payload := []byte(subject + "\x00" + strconv.FormatInt(expiresAt.Unix(), 10) + "\x00" + relPath)
	token := base64.RawURLEncoding.EncodeToString(payload) + "." + base64.RawURLEncoding.EncodeToString(s.mac(payload))
	return token, expiresAt, nil
}

// Verify checks the signature before the expiry so a forged token never
// reports ErrTokenExpired.
func (s *SignedURLSigner) Verify(token string) (LinkClaims, error) {
	if len(s.secret) == 0 {
		return LinkClaims{}, errNoSecret
	}
	encPayload, encMAC, ok := strings.Cut(token, ".")
	if !ok {
		return LinkClaims{}, ErrTokenInvalid
	}
	payload, err := base64.RawURLEncoding.DecodeString(encPayload)
	if err != nil {
		return LinkClaims{}, ErrTokenInvalid
	}
	sig, err := base64.RawURLEncoding.DecodeString(encMAC)
	if err != nil || !hmac.Equal(sig, s.mac(payload)) {
		return LinkClaims{}, ErrTokenInvalid
	}

	fields := bytes.SplitN(payload, []byte{0}, 3)
	if len(fields) != 3 {
		return LinkClaims{}, ErrTokenInvalid
	}
	exp, err := strconv.ParseInt(string(fields[1]), 10, 64)
	if err != nil {
		return LinkClaims{}, ErrTokenInvalid
	}
	claims := LinkClaims{Subject: string(fields[0]), Path: string(fields[2]), ExpiresAt: time.Unix(exp, 0)}
	if s.now().After(claims.ExpiresAt) {
		return LinkClaims{}, ErrTokenExpired
	}
	return claims, nil
}

func (s *SignedURLSigner) mac(payload []byte) []byte {
	m := hmac.New(sha256.New, s.secret)
	m.Write(payload)
	return m.Sum(nil)
}
