// Package owners handles venue-owner accounts: bcrypt credentials in
// Postgres and the HS256 bearer tokens the venue endpoints require.
package owners

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/chalkitup/backend/internal/config"
	"github.com/chalkitup/backend/internal/models"
)

const (
	tokenTTL          = 7 * 24 * time.Hour
	minPasswordLength = 8
)

var (
	ErrEmailTaken     = errors.New("owners: email already registered")
	ErrBadCredentials = errors.New("owners: invalid email or password")
	ErrBadToken       = errors.New("owners: invalid or expired token")
	ErrWeakPassword   = errors.New("owners: password must be at least 8 characters")
	ErrInvalidEmail   = errors.New("owners: invalid email address")
)

// Register creates an owner account. The password is stored as a bcrypt
// hash, never in plaintext.
func Register(db *sqlx.DB, email, password, displayName string) (*models.OwnerAccount, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = email
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var acct models.OwnerAccount
	err = db.Get(&acct, `
		INSERT INTO owner_accounts (email, password_hash, display_name)
		VALUES ($1, $2, $3)
		RETURNING id, email, password_hash, display_name, created_at, updated_at
	`, email, string(hash), displayName)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create owner account: %w", err)
	}
	return &acct, nil
}

// Login checks credentials and returns the account. Unknown emails and bad
// passwords fail identically.
func Login(db *sqlx.DB, email, password string) (*models.OwnerAccount, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	acct, err := ByEmail(db, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return acct, nil
}

// ByEmail fetches an owner account by email.
func ByEmail(db *sqlx.DB, email string) (*models.OwnerAccount, error) {
	var acct models.OwnerAccount
	err := db.Get(&acct, `
		SELECT id, email, password_hash, display_name, created_at, updated_at
		FROM owner_accounts WHERE email = $1
	`, email)
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// ByID fetches an owner account by id.
func ByID(db *sqlx.DB, id string) (*models.OwnerAccount, error) {
	var acct models.OwnerAccount
	err := db.Get(&acct, `
		SELECT id, email, password_hash, display_name, created_at, updated_at
		FROM owner_accounts WHERE id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// IssueToken signs a 7-day HS256 bearer token with the owner id as subject.
func IssueToken(secret, ownerID string) (string, error) {
	return issueToken(secret, ownerID, tokenTTL)
}

func issueToken(secret, ownerID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": ownerID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies a bearer token and returns the owner id it names.
func ParseToken(secret, token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrBadToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrBadToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrBadToken
	}
	return sub, nil
}

// AuthMiddleware gates venue routes behind a Bearer token and stows the
// owner id in the gin context under "owner_id".
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token", "code": "auth_failed"})
			return
		}
		ownerID, err := ParseToken(cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "code": "auth_failed"})
			return
		}
		c.Set("owner_id", ownerID)
		c.Next()
	}
}

// OwnerID pulls the authenticated owner id out of the gin context.
func OwnerID(c *gin.Context) string {
	v, ok := c.Get("owner_id")
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return false
	}
	return !strings.ContainsAny(email, " \t\n")
}
