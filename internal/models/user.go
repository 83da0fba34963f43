package models

// Credential is the locally cached login material for one driver account.
// Only the bcrypt hash is ever stored; the plaintext password goes to the
// backend login action and nowhere else.
type Credential struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// Claims are the fields carried by a local session token.
type Claims struct {
	Username string `json:"username"`
	Offline  bool   `json:"offline"`
	Exp      int64  `json:"exp"`
}
