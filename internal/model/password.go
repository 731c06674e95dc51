package model

// PasswordHasher hashes and verifies user passwords. Encoded hashes embed
// their own parameters and salt.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}
