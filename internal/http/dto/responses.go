package dto

import "github.com/auth-center/backend/internal/models"

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type QRSessionResponse struct {
	Token string `json:"token"`
	QR    string `json:"qr"` // base64 PNG
	URL   string `json:"url"`
}

// PollResponse: user is null while pending.
type PollResponse struct {
	Status   string           `json:"status"`
	User     *models.Identity `json:"user"`
	Code     string           `json:"code,omitempty"`
	Redirect string           `json:"redirect,omitempty"`
}

type PollExpiredResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

type NonceResponse struct {
	Nonce string `json:"nonce"`
}

type SolanaAuthResponse struct {
	OK        bool   `json:"ok"`
	PublicKey string `json:"public_key"`
	Code      string `json:"code,omitempty"`
	Redirect  string `json:"redirect,omitempty"`
}

type LoginResponse struct {
	OK       bool            `json:"ok"`
	User     models.Identity `json:"user"`
	Code     string          `json:"code,omitempty"`
	Redirect string          `json:"redirect,omitempty"`
}

type ExchangeResponse struct {
	OK     bool            `json:"ok"`
	User   models.Identity `json:"user"`
	Method string          `json:"method"`
}

type MethodsResponse struct {
	Service  string   `json:"service"`
	Methods  []string `json:"methods"`
	Redirect string   `json:"redirect,omitempty"`
}
