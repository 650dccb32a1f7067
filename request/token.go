package request

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultTokenTTL = 4 * time.Hour

// LocalTokenSource mints join tokens with a shared HMAC secret. Self-hosted
// classrooms run the media server and the app against the same secret with
// no token service in between; hosted deployments fetch tokens from the
// backend instead.
type LocalTokenSource struct {
	Secret []byte
	TTL    time.Duration
}

func (s *LocalTokenSource) JoinToken(req JoinTokenRequest) (string, error) {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     req.Identity,
		"name":    req.ParticipantName,
		"room":    req.RoomName,
		"teacher": req.IsTeacher,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
		"jti":     uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrToken, err)
	}
	return signed, nil
}
