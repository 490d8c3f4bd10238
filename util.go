package ice

import (
	"net"

	"github.com/pion/randutil"
)

const (
	runesAlpha                 = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	runesDigit                 = "0123456789"
	runesCandidateIDFoundation = runesAlpha + runesDigit + "+/"

	lenUFrag      = 16
	lenPwd        = 32
	lenID         = 16
	lenFoundation = 32
)

func validIP(s string) bool {
	return net.ParseIP(s) != nil
}

// parseIPOrZero parses s, returning the zero IP on failure — used when
// encoding XOR-MAPPED-ADDRESS from a TransportAddress that the caller has
// already validated.
func parseIPOrZero(s string) net.IP {
	ip := net.ParseIP(s)
	if ip == nil {
		return net.IPv4zero
	}
	return ip
}

// generateID produces an opaque per-candidate identifier. Per RFC 5245
// §15.1 this is shared in SDP but never used cryptographically, so a
// non-crypto generator is fine (matches the teacher's candidateIDGenerator).
func generateID() (string, error) {
	s, err := randutil.GenerateCryptoRandomString(lenID, runesCandidateIDFoundation)
	if err != nil {
		return "", err
	}
	return "candidate:" + s, nil
}

// generateFoundation produces an arbitrary foundation for a
// peer-reflexive candidate the check list discovers on the fly
// (spec.md §4.4: "a freshly generated arbitrary foundation").
func generateFoundation() (string, error) {
	return randutil.GenerateCryptoRandomString(lenFoundation, runesCandidateIDFoundation)
}

// generateUfrag generates a short-term credential username fragment.
func generateUfrag() (string, error) {
	return randutil.GenerateCryptoRandomString(lenUFrag, runesAlpha)
}

// generatePwd generates a short-term credential password.
func generatePwd() (string, error) {
	return randutil.GenerateCryptoRandomString(lenPwd, runesAlpha)
}

// generateTieBreaker produces the 64-bit tie-breaker used to arbitrate
// role conflicts (spec.md §3, §9 — "should use a cryptographically
// strong RNG").
func generateTieBreaker() (uint64, error) {
	return randutil.CryptoUint64()
}
