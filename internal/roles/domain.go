package roles

// Role represents a catalog role with its grants and member count.
type Role struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
	UserCount   int      `json:"userCount"`
}
