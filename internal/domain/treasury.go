package domain

// TrueWalletBalance is the balance block returned by the TMN member API.
type TrueWalletBalance struct {
	Msisdn  string  `json:"msisdn"`
	Balance float64 `json:"balance"`
}

// TrueWalletKey is one API key registered on the wallet account.
type TrueWalletKey struct {
	KeyID   string `json:"key_id"`
	Msisdn  string `json:"msisdn"`
	Created string `json:"created"`
	Expire  string `json:"expire"`
}

// TrueWalletStatus pairs a wallet balance with the API key matched to it
// by phone-number suffix, if any.
type TrueWalletStatus struct {
	Balance    TrueWalletBalance `json:"balance"`
	MatchedKey *TrueWalletKey    `json:"matchedKey,omitempty"`
}

// OKXBalance is one currency entry of the OKX funding-account balance.
type OKXBalance struct {
	Currency  string `json:"ccy"`
	Balance   string `json:"bal"`
	Available string `json:"availBal"`
	Frozen    string `json:"frozenBal"`
}
