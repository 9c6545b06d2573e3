package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/argon2"

	"github.com/Dylan-B-D/photo-gallery/internal/apperror"
	"github.com/Dylan-B-D/photo-gallery/internal/config"
)

// testHash generates an argon2id PHC hash with low-cost parameters so the
// test suite stays fast.
func testHash(t *testing.T, password string) string {
	t.Helper()
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		t.Fatalf("generating salt: %v", err)
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 8*1024, 1, 32)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, 8*1024, 1, 1,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
}

// newTestService creates an authService backed by an in-memory Redis.
func newTestService(t *testing.T, admin config.AdminConfig) (*authService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	if admin.SessionTTL == 0 {
		admin.SessionTTL = time.Hour
	}
	return &authService{
		admin:      admin,
		redis:      client,
		sessionTTL: admin.SessionTTL,
	}, mr
}

// assertAppError checks that err is an *apperror.AppError with the expected code.
func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// --- Login Tests ---

func TestLogin_Success(t *testing.T) {
	svc, mr := newTestService(t, config.AdminConfig{
		Username:     "admin",
		PasswordHash: testHash(t, "correct horse"),
	})

	token, err := svc.Login(context.Background(), LoginInput{
		Username: "admin",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(token) != sessionTokenBytes*2 {
		t.Errorf("expected %d-char hex token, got %d chars", sessionTokenBytes*2, len(token))
	}
	if !mr.Exists(sessionKeyPrefix + token) {
		t.Error("expected session key in Redis")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestService(t, config.AdminConfig{
		Username:     "admin",
		PasswordHash: testHash(t, "correct horse"),
	})

	_, err := svc.Login(context.Background(), LoginInput{
		Username: "admin",
		Password: "battery staple",
	})
	assertAppError(t, err, 401)
}

func TestLogin_WrongUsername(t *testing.T) {
	svc, _ := newTestService(t, config.AdminConfig{
		Username:     "admin",
		PasswordHash: testHash(t, "correct horse"),
	})

	_, err := svc.Login(context.Background(), LoginInput{
		Username: "root",
		Password: "correct horse",
	})
	assertAppError(t, err, 401)
}

func TestLogin_NoHashConfigured(t *testing.T) {
	svc, _ := newTestService(t, config.AdminConfig{Username: "admin"})

	// Without a configured hash, login is disabled rather than open.
	_, err := svc.Login(context.Background(), LoginInput{
		Username: "admin",
		Password: "",
	})
	assertAppError(t, err, 401)
}

func TestLogin_MalformedHash(t *testing.T) {
	svc, _ := newTestService(t, config.AdminConfig{
		Username:     "admin",
		PasswordHash: "$2a$10$not-an-argon2-hash",
	})

	_, err := svc.Login(context.Background(), LoginInput{
		Username: "admin",
		Password: "anything",
	})
	assertAppError(t, err, 401)
}

// --- Session Tests ---

func TestValidateSession_Success(t *testing.T) {
	svc, _ := newTestService(t, config.AdminConfig{
		Username:     "admin",
		PasswordHash: testHash(t, "pw"),
	})

	token, err := svc.Login(context.Background(), LoginInput{Username: "admin", Password: "pw"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	session, err := svc.ValidateSession(context.Background(), token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Username != "admin" {
		t.Errorf("expected username admin, got %s", session.Username)
	}
}

func TestValidateSession_UnknownToken(t *testing.T) {
	svc, _ := newTestService(t, config.AdminConfig{Username: "admin"})

	_, err := svc.ValidateSession(context.Background(), "deadbeef")
	assertAppError(t, err, 401)
}

func TestValidateSession_Expired(t *testing.T) {
	svc, mr := newTestService(t, config.AdminConfig{
		Username:     "admin",
		PasswordHash: testHash(t, "pw"),
		SessionTTL:   time.Minute,
	})

	token, err := svc.Login(context.Background(), LoginInput{Username: "admin", Password: "pw"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	_, err = svc.ValidateSession(context.Background(), token)
	assertAppError(t, err, 401)
}

func TestDestroySession(t *testing.T) {
	svc, mr := newTestService(t, config.AdminConfig{
		Username:     "admin",
		PasswordHash: testHash(t, "pw"),
	})

	token, err := svc.Login(context.Background(), LoginInput{Username: "admin", Password: "pw"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if err := svc.DestroySession(context.Background(), token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mr.Exists(sessionKeyPrefix + token) {
		t.Error("expected session key to be removed")
	}

	// Destroying an already-destroyed session is not an error.
	if err := svc.DestroySession(context.Background(), token); err != nil {
		t.Fatalf("expected repeat destroy to succeed: %v", err)
	}
}

// --- Password Verification Tests ---

func TestVerifyPassword(t *testing.T) {
	hash := testHash(t, "secret")

	if !verifyPassword("secret", hash) {
		t.Error("expected correct password to verify")
	}
	if verifyPassword("Secret", hash) {
		t.Error("expected case-different password to fail")
	}
	if verifyPassword("", hash) {
		t.Error("expected empty password to fail")
	}
	if verifyPassword("secret", "garbage") {
		t.Error("expected malformed hash to fail closed")
	}
}
