// Package fileurl signs download links for files kept in the GridFS backend,
// so blobs can be served publicly without exposing a listable bucket.
package fileurl

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

const basePath = "/api/files/"

type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// URL returns a relative download link valid for the signer's TTL.
// A zero TTL produces a link that never expires.
func (s *Signer) URL(fileID string) string {
	var expires int64
	if s.ttl > 0 {
		expires = s.now().Add(s.ttl).Unix()
	}
	return fmt.Sprintf("%s%s?expires=%d&sig=%s", basePath, fileID, expires, s.sign(fileID, expires))
}

// Verify checks the signature and expiry of a link produced by URL.
func (s *Signer) Verify(fileID, expires, sig string) bool {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return false
	}
	if exp != 0 && s.now().Unix() > exp {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(s.sign(fileID, exp)))
}

func (s *Signer) sign(fileID string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(fmt.Sprintf("%s:%d", fileID, expires)))
	return hex.EncodeToString(mac.Sum(nil))
}
