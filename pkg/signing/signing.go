package signing

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
)

// SignatureField is the envelope field that carries the signature. It is never part of the signed input.
const SignatureField = "sign"

// Sign computes the gateway signature over a flat field set.
//
// Every pair is rendered as key+value, the rendered strings are sorted byte-wise,
// joined without a delimiter, wrapped in the secret on both sides, MD5 hashed and
// returned as upper-case hex. The remote verifier repeats the same steps, so the
// ordering must stay a plain byte comparison.
func Sign(fields map[string]string, secret string) string {
	pairs := make([]string, 0, len(fields))
	for k, v := range fields {
		pairs = append(pairs, k+v)
	}
	sort.Strings(pairs)

	var sb strings.Builder
	sb.WriteString(secret)
	for _, p := range pairs {
		sb.WriteString(p)
	}
	sb.WriteString(secret)

	sum := md5.Sum([]byte(sb.String()))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// SignEnvelope signs fields with any existing signature field left out of the input set.
func SignEnvelope(fields map[string]string, secret string) string {
	if _, ok := fields[SignatureField]; !ok {
		return Sign(fields, secret)
	}
	unsigned := make(map[string]string, len(fields)-1)
	for k, v := range fields {
		if k == SignatureField {
			continue
		}
		unsigned[k] = v
	}
	return Sign(unsigned, secret)
}
