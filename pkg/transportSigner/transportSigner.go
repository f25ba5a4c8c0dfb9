package transportSigner

// IEnvelopeSigner computes the authentication code for an outgoing request envelope.
// Implementations own the shared secret; callers only ever see the resulting signature.
type IEnvelopeSigner interface {
	// SignFields signs the unsigned envelope fields. A "sign" key in fields is ignored.
	SignFields(fields map[string]string) (string, error)
}
