package model

// TokenMeta captures ERC20 metadata. Implementation is set when the token is
// a proxy and the logic contract could be resolved.
type TokenMeta struct {
	Address        string `json:"address"`
	Decimals       uint8  `json:"decimals"`
	Symbol         string `json:"symbol"`
	Name           string `json:"name"`
	Implementation string `json:"implementation,omitempty"`
}
