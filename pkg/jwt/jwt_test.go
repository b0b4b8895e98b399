package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T, secret, issuer string) *Signer {
	t.Helper()
	s, err := NewSigner(secret, issuer, 5*time.Minute)
	require.NoError(t, err)
	return s
}

func TestSignVerify(t *testing.T) {
	s := newTestSigner(t, "secreto", "medstock-ledger")
	tok, err := s.Sign("u-1", "nurse")
	require.NoError(t, err)

	claims, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "nurse", claims.Role)
	assert.Equal(t, "u-1", claims.Subject)
}

func TestVerify_Rechazos(t *testing.T) {
	s := newTestSigner(t, "secreto", "medstock-ledger")
	tok, err := s.Sign("u-1", "nurse")
	require.NoError(t, err)

	_, err = newTestSigner(t, "otro", "medstock-ledger").Verify(tok)
	assert.ErrorIs(t, err, gojwt.ErrTokenSignatureInvalid)

	_, err = newTestSigner(t, "secreto", "otro-emisor").Verify(tok)
	assert.ErrorIs(t, err, gojwt.ErrTokenInvalidIssuer)

	expired, err := s.SignWithTTL("u-1", "nurse", -time.Hour)
	require.NoError(t, err)
	_, err = s.Verify(expired)
	assert.ErrorIs(t, err, gojwt.ErrTokenExpired)
}

func TestVerify_ToleraDesfaseDeReloj(t *testing.T) {
	s := newTestSigner(t, "secreto", "")
	tok, err := s.SignWithTTL("u-1", "viewer", -10*time.Second)
	require.NoError(t, err)

	_, err = s.Verify(tok)
	assert.NoError(t, err)
}

func TestVerify_RechazaOtroAlgoritmo(t *testing.T) {
	s := newTestSigner(t, "secreto", "")
	claims := Claims{
		RegisteredClaims: gojwt.RegisteredClaims{ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           "u-1",
	}
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS512, claims).SignedString([]byte("secreto"))
	require.NoError(t, err)

	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, gojwt.ErrTokenSignatureInvalid)
}

func TestNewSigner_Validaciones(t *testing.T) {
	_, err := NewSigner("", "x", time.Minute)
	assert.ErrorIs(t, err, ErrEmptySecret)

	s := newTestSigner(t, "secreto", "")
	_, err = s.Sign("", "admin")
	assert.ErrorIs(t, err, ErrNoUserID)
}
