package dto

// CreateUserRequest payload for admin user creation.
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// UpdateUserRequest payload for partial user updates; absent fields are
// left untouched.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// UserListResponse is a page of users plus the unpaged total.
type UserListResponse struct {
	Users      []IdentityResponse `json:"users"`
	TotalUsers int                `json:"total_users"`
}
