package dto

type QRSessionRequest struct {
	Redirect string `json:"redirect"`
}

type SolanaNonceRequest struct {
	PublicKey string `json:"public_key"`
}

type SolanaAuthRequest struct {
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"` // base64
	Nonce     string `json:"nonce"`
	Redirect  string `json:"redirect,omitempty"`
}

type ExchangeRequest struct {
	Code     string `json:"code"`
	AppToken string `json:"app_token,omitempty"`
}

// TelegramUpdate is the subset of a Bot API update the webhook reads.
type TelegramUpdate struct {
	UpdateID int64            `json:"update_id"`
	Message  *TelegramMessage `json:"message,omitempty"`
}

type TelegramMessage struct {
	Text string        `json:"text"`
	From *TelegramFrom `json:"from,omitempty"`
}

type TelegramFrom struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}
