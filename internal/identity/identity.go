package identity

import "github.com/gin-gonic/gin"

const (
	HeaderUserID    = "X-User-Id"
	HeaderUserEmail = "X-User-Email"

	contextKey = "identity.user"
)

// User is the purchaser identity attached to a request by the upstream
// gateway. Authentication itself happens outside this service.
type User struct {
	ID    string
	Email string
}

// Middleware resolves the request identity from headers. Requests without
// one get the development identity from config; that fallback is not meant
// for production.
func Middleware(dev User) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := User{
			ID:    c.GetHeader(HeaderUserID),
			Email: c.GetHeader(HeaderUserEmail),
		}
		if user.ID == "" {
			user = dev
		}
		c.Set(contextKey, user)
		c.Next()
	}
}

func FromContext(c *gin.Context) User {
	if v, ok := c.Get(contextKey); ok {
		if user, ok := v.(User); ok {
			return user
		}
	}
	return User{}
}
