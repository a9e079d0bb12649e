package models

// Identity is the minimal authenticated-user reference returned by the accounts service
// and embedded in every token the gateway mints.
type Identity struct {
	ID    string `json:"id" bson:"id"`
	Email string `json:"email" bson:"email"`
}

// Valid reports whether the identity carries a usable user id.
func (i Identity) Valid() bool { return i.ID != "" }
