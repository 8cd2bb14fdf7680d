package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nexly/go-shop-api/internal/model"
	"github.com/nexly/go-shop-api/internal/repository"
)

// AuthMiddleware validates the Bearer token and loads the user so deleted
// accounts and tokens issued before a password change are rejected.
func AuthMiddleware(secret string, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abortUnauthorized(c, "unauthorized")
			return
		}

		token, err := jwt.Parse(header[7:], func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			abortUnauthorized(c, "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, "invalid claims")
			return
		}

		sub, _ := claims["sub"].(string)
		userID, err := primitive.ObjectIDFromHex(sub)
		if err != nil {
			abortUnauthorized(c, "invalid user id")
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil || user == nil || !user.IsActive {
			abortUnauthorized(c, "the user belonging to this token no longer exists")
			return
		}

		if iat, ok := claims["iat"].(float64); ok && !user.PasswordChangedAt.IsZero() {
			if time.Unix(int64(iat), 0).Before(user.PasswordChangedAt) {
				abortUnauthorized(c, "password was changed recently, please log in again")
				return
			}
		}

		c.Set("userID", user.ID)
		c.Set("userRole", user.Role)
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserRole(c) != model.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"status":  "error",
				"message": "you do not have permission to perform this action",
			})
			return
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) primitive.ObjectID {
	id, _ := c.Get("userID")
	uid, _ := id.(primitive.ObjectID)
	return uid
}

func GetUserRole(c *gin.Context) model.Role {
	role, _ := c.Get("userRole")
	r, _ := role.(model.Role)
	return r
}

func IsAdmin(c *gin.Context) bool {
	return GetUserRole(c) == model.RoleAdmin
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": msg})
}
