package identifier

import (
	"math/rand/v2"
	"strings"
)

// AliasMarker prefixes every name this module generates, so objects it
// creates in a warehouse can be told apart from user tables.
const AliasMarker = "SQC_"

const aliasSuffixLength = 10

const aliasAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RandomAlias returns a marker-prefixed random table alias such as
// SQC_KWITHJRNZT. Collisions are possible but vanishingly unlikely at the
// chain lengths in play; no dedup is attempted.
func RandomAlias() string {
	var sb strings.Builder
	sb.Grow(len(AliasMarker) + aliasSuffixLength)
	sb.WriteString(AliasMarker)
	for i := 0; i < aliasSuffixLength; i++ {
		sb.WriteByte(aliasAlphabet[rand.IntN(len(aliasAlphabet))])
	}
	return sb.String()
}

// HasAliasMarker reports whether a table name was generated by this module.
func HasAliasMarker(name string) bool {
	return strings.HasPrefix(strings.ToUpper(name), AliasMarker)
}
