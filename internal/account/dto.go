package account

// CreateAccountRequest represents the request body for registering an account
type CreateAccountRequest struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
	Type Type   `json:"account_type" validate:"required,oneof=Driver Municipal Establishment Admin"`
}

// AccountResponse represents the response for a single account
type AccountResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      Type   `json:"account_type"`
	CreatedAt string `json:"created_at"`
}

// ToResponse converts an Account model to an AccountResponse DTO
func (a *Account) ToResponse() *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Type:      a.Type,
		CreatedAt: a.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
