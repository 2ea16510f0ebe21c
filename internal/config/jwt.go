package config

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type JWT struct {
	publicKey     *rsa.PublicKey
	privateKey    *rsa.PrivateKey
	signingMethod jwt.SigningMethod
	tokenLifetime time.Duration
}

func loadPEMKey(envVar, fileVar string, parse func([]byte) error) error {
	if pem, ok := os.LookupEnv(envVar); ok {
		return parse([]byte(pem))
	}
	path, ok := os.LookupEnv(fileVar)
	if !ok {
		return fmt.Errorf("no %s or %s env variable set", envVar, fileVar)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read key file: %w", err)
	}
	return parse(data)
}

func NewJWT() (*JWT, error) {
	j := &JWT{
		signingMethod: jwt.GetSigningMethod("RS256"),
		tokenLifetime: time.Hour * 24 * 30,
	}

	err := loadPEMKey("JWT_PRIVATE_KEY", "JWT_PRIVATE_KEY_FILE", func(pem []byte) error {
		key, err := jwt.ParseRSAPrivateKeyFromPEM(pem)
		j.privateKey = key
		return err
	})
	if err != nil {
		return nil, err
	}

	err = loadPEMKey("JWT_PUBLIC_KEY", "JWT_PUBLIC_KEY_FILE", func(pem []byte) error {
		key, err := jwt.ParseRSAPublicKeyFromPEM(pem)
		j.publicKey = key
		return err
	})
	if err != nil {
		return nil, err
	}

	return j, nil
}

func (j *JWT) TokenLifetime() time.Duration {
	return j.tokenLifetime
}

func (j *JWT) Sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(j.signingMethod, claims).SignedString(j.privateKey)
}

func (j *JWT) ParseWithClaims(tokenString string, claims jwt.Claims) (*jwt.Token, error) {
	return jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			return j.publicKey, nil
		},
	)
}
