package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gracepointe/serveteam-backend/pkg/config"
	"github.com/gracepointe/serveteam-backend/pkg/enums"
)

const responseLinkIssuer = "serveteam-response-link"

// ResponseLinkClaims is the typed token embedded in invitation emails so a
// volunteer can respond without signing in. Each token is bound to a single
// decision; an accept link can never be replayed as a decline.
type ResponseLinkClaims struct {
	AssignmentID uuid.UUID              `json:"assignment_id"`
	VolunteerID  uuid.UUID              `json:"volunteer_id"`
	Decision     enums.AssignmentStatus `json:"decision"`
	jwt.RegisteredClaims
}

// MintResponseLink signs a one-decision response token. The token stays valid
// until the service date plus the configured tail TTL, so late responses after
// the service has passed are rejected at parse time.
func MintResponseLink(cfg config.ResponseLinkConfig, now time.Time, assignmentID, volunteerID uuid.UUID, decision enums.AssignmentStatus, serviceDate time.Time) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("response link secret is required")
	}
	if decision != enums.AssignmentStatusAccepted && decision != enums.AssignmentStatusDeclined {
		return "", fmt.Errorf("response link decision must be accepted or declined, got %q", decision)
	}
	if assignmentID == uuid.Nil || volunteerID == uuid.Nil {
		return "", fmt.Errorf("assignment and volunteer ids are required")
	}

	expiry := serviceDate.UTC().Truncate(24 * time.Hour).Add(cfg.TailTTL)
	if !expiry.After(now) {
		return "", fmt.Errorf("response link would already be expired")
	}

	claims := ResponseLinkClaims{
		AssignmentID: assignmentID,
		VolunteerID:  volunteerID,
		Decision:     decision,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    responseLinkIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing response link: %w", err)
	}
	return signed, nil
}

// ParseResponseLink validates a response token and returns its claims.
func ParseResponseLink(cfg config.ResponseLinkConfig, tokenString string) (*ResponseLinkClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("response link secret is required")
	}

	claims := &ResponseLinkClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(responseLinkIssuer),
	)
	if err != nil {
		return nil, err
	}
	if claims.Decision != enums.AssignmentStatusAccepted && claims.Decision != enums.AssignmentStatusDeclined {
		return nil, fmt.Errorf("response link carries invalid decision %q", claims.Decision)
	}

	return claims, nil
}
