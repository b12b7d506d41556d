package credential

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/bertrandmartel/authgateway/gw/identity"
	jwt "github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
)

var testSecret = "some jwt secret"

func TestIssueVerifyRoundTrip(t *testing.T) {
	codec := NewCodec(testSecret, 24*time.Hour)

	user := &identity.Identity{
		ID:      "42",
		Email:   "a@x.com",
		Name:    "Ann",
		Picture: "http://example.com/ann.jpg",
	}
	tokenString, err := codec.Issue(user)
	assert.Nil(t, err)
	assert.NotEqual(t, "", tokenString)

	verified, verifyErr := codec.Verify(tokenString)
	assert.Nil(t, verifyErr)
	assert.Equal(t, "42", verified.ID)
	assert.Equal(t, "a@x.com", verified.Email)
	assert.Equal(t, "Ann", verified.Name)
	//picture is never embedded in the credential
	assert.Equal(t, "", verified.Picture)
}

func TestIssueInvalidIdentity(t *testing.T) {
	codec := NewCodec(testSecret, 24*time.Hour)

	//nil identity
	tokenString, err := codec.Issue(nil)
	assert.Equal(t, "", tokenString)
	assert.NotNil(t, err)
	assert.Equal(t, "identity is nil", err.Error())

	//identity without id
	tokenString, err = codec.Issue(&identity.Identity{Email: "a@x.com"})
	assert.Equal(t, "", tokenString)
	assert.NotNil(t, err)
	assert.Equal(t, "identity has no id", err.Error())
}

func TestVerifyExpired(t *testing.T) {
	codec := NewCodec(testSecret, 24*time.Hour)

	//token expired one hour ago
	claims := &Claims{
		ID: "42",
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  time.Now().Add(-2 * time.Hour).Unix(),
			ExpiresAt: time.Now().Add(-1 * time.Hour).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(testSecret))
	assert.Nil(t, err)

	verified, verifyErr := codec.Verify(tokenString)
	assert.Nil(t, verified)
	assert.NotNil(t, verifyErr)
	assert.Equal(t, VerifyErrorExpired, verifyErr.ErrorType)
}

func TestVerifyBadSignature(t *testing.T) {
	codec := NewCodec(testSecret, 24*time.Hour)

	tokenString, err := codec.Issue(&identity.Identity{ID: "42"})
	assert.Nil(t, err)

	//flip one bit of the decoded signature and re-encode it
	dot := strings.LastIndex(tokenString, ".")
	sig, err := base64.RawURLEncoding.DecodeString(tokenString[dot+1:])
	assert.Nil(t, err)
	sig[len(sig)/2] ^= 0x01
	tampered := tokenString[:dot+1] + base64.RawURLEncoding.EncodeToString(sig)

	verified, verifyErr := codec.Verify(tampered)
	assert.Nil(t, verified)
	assert.NotNil(t, verifyErr)
	assert.Equal(t, VerifyErrorBadSignature, verifyErr.ErrorType)

	//token signed with another secret
	otherCodec := NewCodec("some other secret", 24*time.Hour)
	tokenString, err = otherCodec.Issue(&identity.Identity{ID: "42"})
	assert.Nil(t, err)

	verified, verifyErr = codec.Verify(tokenString)
	assert.Nil(t, verified)
	assert.NotNil(t, verifyErr)
	assert.Equal(t, VerifyErrorBadSignature, verifyErr.ErrorType)
}

func TestVerifyMalformed(t *testing.T) {
	codec := NewCodec(testSecret, 24*time.Hour)

	verified, verifyErr := codec.Verify("garbage")
	assert.Nil(t, verified)
	assert.NotNil(t, verifyErr)
	assert.Equal(t, VerifyErrorMalformed, verifyErr.ErrorType)

	verified, verifyErr = codec.Verify("")
	assert.Nil(t, verified)
	assert.NotNil(t, verifyErr)
	assert.Equal(t, VerifyErrorMalformed, verifyErr.ErrorType)

	//credential signed with an unexpected method
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{ID: "42"})
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	assert.Nil(t, err)

	verified, verifyErr = codec.Verify(tokenString)
	assert.Nil(t, verified)
	assert.NotNil(t, verifyErr)
	assert.Equal(t, VerifyErrorMalformed, verifyErr.ErrorType)

	//valid signature but no subject claim
	token = jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	})
	tokenString, err = token.SignedString([]byte(testSecret))
	assert.Nil(t, err)

	verified, verifyErr = codec.Verify(tokenString)
	assert.Nil(t, verified)
	assert.NotNil(t, verifyErr)
	assert.Equal(t, VerifyErrorMalformed, verifyErr.ErrorType)
	assert.Equal(t, "credential has no subject", verifyErr.Err.Error())
}

func TestDefaultTTL(t *testing.T) {
	codec := NewCodec(testSecret, 0)
	assert.Equal(t, 24*time.Hour, codec.TTL())
}
