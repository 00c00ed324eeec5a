package domain

// Account is a registered user's durable identity record.
// Email is the unique key and is compared exactly as stored.
type Account struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

// Identity is the public part of an Account captured into a session at login.
type Identity struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Identity returns the account's public fields.
func (a Account) Identity() Identity {
	return Identity{Username: a.Username, Email: a.Email}
}

// FindByEmail returns the account whose email equals email exactly.
// No case folding or trimming is applied.
func FindByEmail(accounts []Account, email string) (Account, bool) {
	for _, a := range accounts {
		if a.Email == email {
			return a, true
		}
	}
	return Account{}, false
}
