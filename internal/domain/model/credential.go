package model

// CredentialRecord is the non-secret half of a stored login. SecretKey is
// generated once at creation and joins the record to its CredentialSecret.
type CredentialRecord struct {
	ID        int64
	GroupID   *int64
	Title     string
	SecretKey string
}

// CredentialSecret is the secret half of a stored login. It is serialized
// into an opaque blob before it reaches the secret store.
type CredentialSecret struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Credential is a record together with its decrypted secret.
type Credential struct {
	CredentialRecord
	CredentialSecret
}

// SameGroup reports whether two optional group ids point at the same group,
// treating nil as the root level.
func SameGroup(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
