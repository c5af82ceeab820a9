package middleware

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"c2c-api/config"
)

// Claims carries the identity fields issued by the upstream identity
// provider.
type Claims struct {
	Name       string   `json:"name"`
	UniqueName string   `json:"unique_name"`
	Roles      []string `json:"roles"`
	jwt.RegisteredClaims
}

// roleCache is an in-memory TTL cache of resolved role sets, keyed by
// username. Entries expire with the token they came from.
type roleCache struct {
	mu      sync.Mutex
	entries map[string]roleCacheEntry
}

type roleCacheEntry struct {
	roles   []string
	expires time.Time
}

var rolesCache = &roleCache{entries: make(map[string]roleCacheEntry)}

const defaultRoleTTL = 10 * time.Minute

func (c *roleCache) get(username string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[username]
	if !ok || time.Now().After(entry.expires) {
		delete(c.entries, username)
		return nil, false
	}
	return entry.roles, true
}

func (c *roleCache) put(username string, roles []string, expires time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[username] = roleCacheEntry{roles: roles, expires: expires}
}

// fetchRemoteRoles asks the auth service for the user's roles. Used
// only when AUTH_API is configured; otherwise roles come straight from
// the token.
func fetchRemoteRoles(accessToken string) ([]string, error) {
	authAPI := os.Getenv("AUTH_API")
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.PostForm(authAPI+"register/", url.Values{"auth_token": {accessToken}})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var body struct {
		UserRoles []string `json:"user_roles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.UserRoles, nil
}

func resolveRoles(accessToken string, claims *Claims) []string {
	if claims.Name != "" {
		if roles, ok := rolesCache.get(claims.Name); ok {
			return roles
		}
	}
	roles := claims.Roles
	if os.Getenv("AUTH_API") != "" {
		if remote, err := fetchRemoteRoles(accessToken); err == nil {
			roles = remote
		}
	}
	lowered := make([]string, 0, len(roles))
	for _, role := range roles {
		lowered = append(lowered, strings.ToLower(role))
	}
	expires := time.Now().Add(defaultRoleTTL)
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(expires) {
		expires = claims.ExpiresAt.Time
	}
	if claims.Name != "" {
		rolesCache.put(claims.Name, lowered, expires)
	}
	return lowered
}

// AuthMiddleware validates the bearer JWT and stashes the caller's
// identity on the context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(os.Getenv("JWT_SECRET")), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(*Claims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		c.Set("username", claims.Name)
		c.Set("userEmail", claims.UniqueName)
		c.Set("userRoles", resolveRoles(tokenString, claims))

		c.Next()
	}
}

// RequireRoles gates a route on any of the given canonical role names.
// The DEMO profile matches the "_demo"-suffixed variants.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRoles := RolesFrom(c)
		for _, required := range roles {
			profileRole := config.RoleName(required)
			for _, held := range userRoles {
				if held == profileRole {
					c.Next()
					return
				}
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		c.Abort()
	}
}

// HasRole reports whether the caller holds the canonical role under the
// active profile.
func HasRole(c *gin.Context, role string) bool {
	profileRole := config.RoleName(role)
	for _, held := range RolesFrom(c) {
		if held == profileRole {
			return true
		}
	}
	return false
}

// RolesFrom returns the caller's resolved roles.
func RolesFrom(c *gin.Context) []string {
	if v, ok := c.Get("userRoles"); ok {
		if roles, ok := v.([]string); ok {
			return roles
		}
	}
	return nil
}

// UsernameFrom returns the caller's display name from the token.
func UsernameFrom(c *gin.Context) string {
	return c.GetString("username")
}

// EmailFrom returns the caller's email from the token.
func EmailFrom(c *gin.Context) string {
	return c.GetString("userEmail")
}

// CORSMiddleware mirrors the allowed origins configured for the UI.
func CORSMiddleware() gin.HandlerFunc {
	allowedOrigins := strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",")
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		for _, allowed := range allowedOrigins {
			if allowed != "" && (allowed == "*" || allowed == origin) {
				c.Header("Access-Control-Allow-Origin", origin)
				break
			}
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
