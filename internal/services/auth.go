package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
	pkgerrors "github.com/aksidharth04/SetuAI-sub001/internal/pkg/errors"
	"github.com/aksidharth04/SetuAI-sub001/internal/requestdata"
	"github.com/aksidharth04/SetuAI-sub001/internal/utils"
)

// AuthService issues and validates the bearer tokens used by the API.
type AuthService interface {
	IssueToken(userID, vendorID uuid.UUID, role requestdata.Role) (string, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authClaims struct {
	VendorID string `json:"vendor_id,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type authService struct {
	log    *logger.Logger
	secret []byte
	ttl    time.Duration
}

func NewAuthService(baseLog *logger.Logger) (AuthService, error) {
	log := baseLog.With("service", "AuthService")
	secret := utils.GetEnv("JWT_SECRET", "", log)
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	ttlHours := utils.GetEnvAsInt("JWT_TTL_HOURS", 24, log)
	return &authService{
		log:    log,
		secret: []byte(secret),
		ttl:    time.Duration(ttlHours) * time.Hour,
	}, nil
}

func (s *authService) IssueToken(userID, vendorID uuid.UUID, role requestdata.Role) (string, error) {
	now := time.Now().UTC()
	claims := authClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	if vendorID != uuid.Nil {
		claims.VendorID = vendorID.String()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	var claims authClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return ctx, pkgerrors.ErrUnauthorized
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, pkgerrors.ErrUnauthorized
	}

	rd := &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Role:        requestdata.Role(claims.Role),
	}
	if claims.VendorID != "" {
		vendorID, err := uuid.Parse(claims.VendorID)
		if err != nil {
			return ctx, pkgerrors.ErrUnauthorized
		}
		rd.VendorID = vendorID
	}
	return requestdata.WithRequestData(ctx, rd), nil
}
