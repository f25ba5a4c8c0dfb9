package signing

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func fieldsGen() gopter.Gen {
	return gen.MapOf(gen.AnyString(), gen.AnyString())
}

// TestSignDeterminism verifies Sign(f, s) == Sign(f, s) and is always 32 upper-case hex digits.
func TestSignDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("signature is deterministic and well formed", prop.ForAll(
		func(fields map[string]string, secret string) bool {
			first := Sign(fields, secret)
			return upperHex32.MatchString(first) && first == Sign(fields, secret)
		},
		fieldsGen(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// TestSignOrderIndependence rebuilds the field set in a random insertion order.
func TestSignOrderIndependence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("insertion order does not change the signature", prop.ForAll(
		func(fields map[string]string, secret string, seed int64) bool {
			keys := make([]string, 0, len(fields))
			for k := range fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			rebuilt := make(map[string]string, len(fields))
			for _, i := range rand.New(rand.NewSource(seed)).Perm(len(keys)) {
				rebuilt[keys[i]] = fields[keys[i]]
			}
			return Sign(fields, secret) == Sign(rebuilt, secret)
		},
		fieldsGen(),
		gen.AnyString(),
		gen.Int64(),
	))

	properties.TestingRun(t)
}

// TestSignSecretSensitivity flips bits in one byte of the secret.
func TestSignSecretSensitivity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("changing any secret byte changes the signature", prop.ForAll(
		func(fields map[string]string, secret string, pos int, mask uint8) bool {
			mutated := []byte(secret)
			mutated[pos%len(mutated)] ^= mask
			return Sign(fields, secret) != Sign(fields, string(mutated))
		},
		fieldsGen(),
		gen.Identifier(),
		gen.IntRange(0, 1<<10),
		gen.UInt8Range(1, 255),
	))

	properties.TestingRun(t)
}
