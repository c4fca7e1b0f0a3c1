package globals

// Context keys
type ContextKey string

const (
	UserIDKey    ContextKey = "userId"
	RoleKey      ContextKey = "role"
	RequestIDKey ContextKey = "requestId"
)

// Roles
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)
