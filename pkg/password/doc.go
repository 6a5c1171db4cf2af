// Package password provides one-way hashing of account secrets.
//
// Hashes are bcrypt strings: the salt and the work factor are embedded in
// the output, so a stored hash is self-describing and can be verified
// without any other state.
//
//	hasher := password.NewHasher(password.Config{Cost: 12})
//	hash, err := hasher.Hash("p4ssW0rd!")
//	ok := hasher.Verify("p4ssW0rd!", hash)
//
// The hasher is stateless after construction and safe for concurrent use.
package password
