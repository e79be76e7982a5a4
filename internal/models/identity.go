package models

// Login methods, also recorded on exchange codes.
const (
	MethodTelegram = "telegram"
	MethodSolana   = "solana"
	MethodGoogle   = "google"
)

// Identity is the provider-independent user record handed to client apps.
// ID is unique only within its method.
type Identity struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
	Address   string `json:"address,omitempty"` // solana wallet
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
}

// ExchangeCode is the one-time ticket a client redeems for an Identity.
type ExchangeCode struct {
	User   Identity `json:"user"`
	Method string   `json:"method"`
}
