package security

import "golang.org/x/crypto/bcrypt"

// Hash password hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	return Hasher{}.Hash(plain)
}

// helper that compares a bcrypt hash with a plaintext password.
func CheckPassword(hash, plain string) error {
	return Hasher{}.Check(hash, plain)
}

// Hasher hashes with a fixed bcrypt cost. The zero value uses bcrypt.DefaultCost.
// Empty passwords are hashed like any other input; rejecting them is a form concern.
type Hasher struct {
	Cost int
}

func (h Hasher) Hash(plain string) (string, error) {
	cost := h.Cost

	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Check returns nil only if plain matches hash.
func (h Hasher) Check(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
