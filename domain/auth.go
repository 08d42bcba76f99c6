package domain

import (
	"github.com/golang-jwt/jwt"
	"github.com/nfthaus/goapi/base/ctx"
)

type JwtCustomClaims struct {
	Address string `json:"data"` // name data for backward compatibility
	jwt.StandardClaims
}

type AuthUsecase interface {
	// SignToken verifies the wallet signature over the signing message and
	// issues an access token for the address.
	SignToken(ctx ctx.Ctx, address Address, signature string) (string, error)
	ParseToken(ctx ctx.Ctx, token string) (address string, err error)
}
