package usecase

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/base/ethereum"
	"github.com/nfthaus/goapi/domain"
)

var timeNow = time.Now

type AuthUseCaseCfg struct {
	JwtSecret          string
	SigningMsgTemplate string
	TokenDuration      time.Duration
}

type impl struct {
	jwtSecret          []byte
	signingMsgTemplate string
	tokenDuration      time.Duration
}

func New(cfg *AuthUseCaseCfg) domain.AuthUsecase {
	dur := cfg.TokenDuration
	if dur == 0 {
		dur = 24 * time.Hour
	}
	return &impl{
		jwtSecret:          []byte(cfg.JwtSecret),
		signingMsgTemplate: cfg.SigningMsgTemplate,
		tokenDuration:      dur,
	}
}

func (im *impl) SignToken(ctx ctx.Ctx, address domain.Address, signature string) (string, error) {
	if address.IsEmpty() {
		return "", domain.ErrInvalidAddress
	}

	msg := fmt.Sprintf(im.signingMsgTemplate, address.ToLowerStr())
	valid, err := ethereum.ValidateMsgSignature([]byte(msg), signature, address.ToLowerStr())
	if err != nil {
		ctx.WithField("err", err).Error("ethereum.ValidateMsgSignature failed")
		return "", domain.ErrInvalidSignature
	}
	if !valid {
		return "", domain.ErrInvalidSignature
	}

	claims := domain.JwtCustomClaims{
		Address: address.ToLowerStr(),
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: timeNow().Add(im.tokenDuration).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	if ss, err := token.SignedString(im.jwtSecret); err != nil {
		ctx.WithField("err", err).Error("token.SignedString failed")
		return "", err
	} else {
		return ss, nil
	}
}

func (im *impl) ParseToken(ctx ctx.Ctx, str string) (string, error) {
	token, err := jwt.ParseWithClaims(str, &domain.JwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("Unexpected signing method: %v", token.Header["alg"])
		}
		return im.jwtSecret, nil
	})
	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(*domain.JwtCustomClaims); ok && token.Valid {
		return claims.Address, nil
	}

	return "", domain.ErrInvalidSignature
}
