package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mr-tron/base58"
)

func TestTokenRoundTrip(t *testing.T) {
	InitJWT("test-secret", time.Hour)

	token, err := GenerateToken(7, "wallet-1")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != 7 || claims.WalletAddress != "wallet-1" {
		t.Errorf("unexpected claims: %+v", claims)
	}

	InitJWT("other-secret", time.Hour)
	if _, err := ValidateToken(token); err == nil {
		t.Errorf("token accepted with wrong secret")
	}
}

func TestVerifyWalletSignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	wallet := base58.Encode(pub)
	msg := "sign in"
	sig := ed25519.Sign(priv, []byte(msg))

	if err := VerifyWalletSignature(wallet, msg, base58.Encode(sig)); err != nil {
		t.Errorf("base58 signature rejected: %v", err)
	}
	if err := VerifyWalletSignature(wallet, msg, hex.EncodeToString(sig)); err != nil {
		t.Errorf("hex signature rejected: %v", err)
	}
	if err := VerifyWalletSignature(wallet, "other", base58.Encode(sig)); err != ErrInvalidSignature {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
	if err := VerifyWalletSignature("not-base58-0OIl", msg, base58.Encode(sig)); err != ErrInvalidPublicKey {
		t.Errorf("expected ErrInvalidPublicKey, got %v", err)
	}
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	InitJWT("test-secret", time.Hour)

	r := gin.New()
	r.GET("/me", AuthMiddleware(), func(c *gin.Context) {
		wallet, _ := GetWalletAddress(c)
		c.String(http.StatusOK, wallet)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without header, got %d", w.Code)
	}

	token, _ := GenerateToken(1, "wallet-1")
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "wallet-1" {
		t.Errorf("expected 200 wallet-1, got %d %q", w.Code, w.Body.String())
	}
}
