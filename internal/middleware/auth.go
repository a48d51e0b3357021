package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"procurement/internal/access"
	"procurement/internal/service"
	"procurement/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Context keys set by Authenticate
const (
	ContextUserID      = "userID"
	ContextUserName    = "userName"
	ContextPermissions = "permissions"
)

// PermissionLoader resolves the permission names of a user
type PermissionLoader func(ctx context.Context, userID uuid.UUID) ([]string, error)

// permCacheEntry stores cached permission names for a user with TTL
type permCacheEntry struct {
	perms     access.Set
	expiresAt time.Time
}

// Auth validates access tokens and checks permissions. Permission sets are
// cached per user for TTL; ClearPermissionCache drops them after role edits.
type Auth struct {
	secret []byte
	load   PermissionLoader
	ttl    time.Duration
	secure bool
	cache  sync.Map // uuid.UUID -> permCacheEntry
}

func NewAuth(secret []byte, load PermissionLoader, ttl time.Duration, secureCookies bool) *Auth {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Auth{secret: secret, load: load, ttl: ttl, secure: secureCookies}
}

// SetTokenCookies sets access_token as an HttpOnly cookie
func (a *Auth) SetTokenCookies(c *gin.Context, accessToken string, maxAge time.Duration) {
	// cross-origin deployments need SameSite=None + Secure
	sameSite := http.SameSiteLaxMode
	if a.secure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie("access_token", accessToken, int(maxAge.Seconds()), "/", "", a.secure, true)
}

// ClearTokenCookies removes the access_token cookie
func (a *Auth) ClearTokenCookies(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	if a.secure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", a.secure, true)
}

// tokenFrom reads the cookie first and falls back to the Authorization header
func tokenFrom(c *gin.Context) (string, error) {
	if tok, err := c.Cookie("access_token"); err == nil && tok != "" {
		return tok, nil
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errors.New("Authorization is missing")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("Invalid authorization format. Expected 'Bearer <token>'")
	}
	return parts[1], nil
}

// ParseToken validates an HS256 token and returns the subject and display name
func ParseToken(secret []byte, tokenString string) (uuid.UUID, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, "", errors.New("Invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, "", errors.New("Invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, "", errors.New("Invalid token subject")
	}
	name, _ := claims["name"].(string)
	return id, name, nil
}

// Authenticate validates the token, loads the permission set and attaches the
// actor to the request context for activity logging.
func (a *Auth) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := tokenFrom(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(err.Error()))
			return
		}
		userID, name, err := ParseToken(a.secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(err.Error()))
			return
		}

		perms, err := a.permissions(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error("Failed to verify permissions"))
			return
		}

		c.Set(ContextUserID, userID.String())
		c.Set(ContextUserName, name)
		c.Set(ContextPermissions, perms)

		ctx := service.WithActor(c.Request.Context(), service.Actor{
			ID:        &userID,
			Name:      name,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequirePermission must run after Authenticate. Every listed permission is required.
func RequirePermission(required ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(ContextPermissions)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Authorization is missing"))
			return
		}
		perms, _ := v.(access.Set)
		for _, p := range required {
			if !perms.Has(p) {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error("Access denied: missing permission '"+p+"'"))
				return
			}
		}
		c.Next()
	}
}

// permissions returns cached or freshly loaded permission names for a user
func (a *Auth) permissions(ctx context.Context, userID uuid.UUID) (access.Set, error) {
	if entry, ok := a.cache.Load(userID); ok {
		cached := entry.(permCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.perms, nil
		}
	}

	names, err := a.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := access.NewSet(names...)
	a.cache.Store(userID, permCacheEntry{perms: set, expiresAt: time.Now().Add(a.ttl)})
	return set, nil
}

// ClearPermissionCache drops the cached permissions of one user, or of everyone when id is nil
func (a *Auth) ClearPermissionCache(id *uuid.UUID) {
	if id != nil {
		a.cache.Delete(*id)
		return
	}
	a.cache.Range(func(key, _ interface{}) bool {
		a.cache.Delete(key)
		return true
	})
}
