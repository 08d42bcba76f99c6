package usecase_test

import (
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/domain"
	"github.com/nfthaus/goapi/stores/auth/usecase"
)

const msgTemplate = "Sign this message to log in\n\nAddress: %s"

func signedParams(t *testing.T) (domain.Address, string) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	address := domain.Address(crypto.PubkeyToAddress(key.PublicKey).Hex()).ToLower()
	msg := fmt.Sprintf(msgTemplate, address.ToLowerStr())
	sig, err := crypto.Sign(accounts.TextHash([]byte(msg)), key)
	require.NoError(t, err)
	return address, hexutil.Encode(sig)
}

func TestSignAndParseToken(t *testing.T) {
	ctx := ctx.Background()
	u := usecase.New(&usecase.AuthUseCaseCfg{
		JwtSecret:          "jwt-secret",
		SigningMsgTemplate: msgTemplate,
	})

	address, sig := signedParams(t)

	tkn, err := u.SignToken(ctx, address, sig)
	assert.NoError(t, err)
	assert.NotEmpty(t, tkn)

	ads, err := u.ParseToken(ctx, tkn)
	assert.NoError(t, err)
	assert.Equal(t, address.ToLowerStr(), ads)
}

func TestSignTokenRejectsWrongSigner(t *testing.T) {
	ctx := ctx.Background()
	u := usecase.New(&usecase.AuthUseCaseCfg{
		JwtSecret:          "jwt-secret",
		SigningMsgTemplate: msgTemplate,
	})

	_, sig := signedParams(t)
	other, _ := signedParams(t)

	_, err := u.SignToken(ctx, other, sig)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	ctx := ctx.Background()
	address, sig := signedParams(t)

	u1 := usecase.New(&usecase.AuthUseCaseCfg{JwtSecret: "secret-a", SigningMsgTemplate: msgTemplate})
	u2 := usecase.New(&usecase.AuthUseCaseCfg{JwtSecret: "secret-b", SigningMsgTemplate: msgTemplate})

	tkn, err := u1.SignToken(ctx, address, sig)
	assert.NoError(t, err)

	_, err = u2.ParseToken(ctx, tkn)
	assert.Error(t, err)
}
