package models

// QR session statuses
const (
	SessionStatusPending       = "pending"
	SessionStatusAuthenticated = "authenticated"
)

// Valid state transitions: from -> []to
var ValidSessionTransitions = map[string][]string{
	SessionStatusPending:       {SessionStatusAuthenticated},
	SessionStatusAuthenticated: {},
}

func IsValidTransition(from, to string) bool {
	allowed, ok := ValidSessionTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// QRSession tracks one Telegram deep-link login. Lifetime is tracked by the
// store that holds it.
type QRSession struct {
	Token    string    `json:"token"`
	Status   string    `json:"status"`
	User     *Identity `json:"user"`
	Redirect string    `json:"redirect,omitempty"`
	Code     string    `json:"code,omitempty"`
}

// OAuthState is what a Google login remembers between redirect and callback.
// Lifetime is tracked by the store that holds it.
type OAuthState struct {
	Redirect string `json:"redirect,omitempty"`
}
