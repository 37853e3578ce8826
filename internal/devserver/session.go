package devserver

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionCookie carries the signed session
const SessionCookie = "dormdesk_session"

const codeTTL = 2 * time.Minute

var (
	errSessionRevoked = errors.New("session revoked")
	errInvalidCode    = errors.New("invalid or expired authorization code")
)

type sessionClaims struct {
	// Epoch is bumped by RevokeAll to invalidate every earlier session
	Epoch int `json:"epoch"`
	jwt.RegisteredClaims
}

type uploadClaims struct {
	ContentType string `json:"ct"`
	jwt.RegisteredClaims
}

type grant struct {
	redirect string
	expires  time.Time
}

// sessions issues and checks session cookies and authorization codes
type sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	epoch   int
	revoked map[string]bool
	codes   map[string]grant
}

func newSessions(secret []byte, ttl time.Duration, now func() time.Time) *sessions {
	return &sessions{
		secret:  secret,
		ttl:     ttl,
		now:     now,
		revoked: map[string]bool{},
		codes:   map[string]grant{},
	}
}

// issueCode records a one-time code that redeems to a session
func (s *sessions) issueCode(redirect string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := uuid.NewString()
	s.codes[code] = grant{redirect: redirect, expires: s.now().Add(codeTTL)}
	return code
}

// redeem consumes a code. A code works once.
func (s *sessions) redeem(code string) (grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.codes[code]
	delete(s.codes, code)
	if !ok || s.now().After(g.expires) {
		return grant{}, errInvalidCode
	}
	return g, nil
}

func (s *sessions) issue(subject string) (string, error) {
	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	now := s.now()
	claims := sessionClaims{
		Epoch: epoch,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *sessions) parse(tokenString string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if claims.Epoch != s.epoch || s.revoked[claims.ID] {
		return nil, errSessionRevoked
	}
	return claims, nil
}

func (s *sessions) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return s.secret, nil
}

func (s *sessions) revoke(tokenString string) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[claims.ID] = true
}

func (s *sessions) revokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
}

// signUpload authorizes one PUT of key with the given content type
func (s *sessions) signUpload(key, contentType string, ttl time.Duration) (string, time.Time, error) {
	expires := s.now().Add(ttl)
	claims := uploadClaims{
		ContentType: contentType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   key,
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	return signed, expires, err
}

func (s *sessions) checkUpload(tokenString, key, contentType string) error {
	claims := &uploadClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithSubject(key),
	)
	if err != nil {
		return err
	}
	if claims.ContentType != contentType {
		return fmt.Errorf("content type %q does not match signed %q", contentType, claims.ContentType)
	}
	return nil
}

// loopbackCallback reports whether raw is an http address on this machine
func loopbackCallback(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "http" {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
