package gateway

import (
	"bytes"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/jdwl-go/jdwl/pkg/config"
)

// responseKeySuffix is the gateway's own spelling and part of the wire contract.
const responseKeySuffix = "_responce"

var methodPattern = regexp.MustCompile(`^[A-Za-z0-9_]+(\.[A-Za-z0-9_]+)+$`)

// Envelope is the full set of wire parameters for one call.
type Envelope struct {
	Payload     string
	Version     string
	Method      string
	Timestamp   string
	AccessToken string
	AppKey      string
	Sign        string
}

// UnsignedFields returns the signature input set.
func (e *Envelope) UnsignedFields() map[string]string {
	return map[string]string{
		config.FieldPayload:     e.Payload,
		config.FieldVersion:     e.Version,
		config.FieldMethod:      e.Method,
		config.FieldTimestamp:   e.Timestamp,
		config.FieldAccessToken: e.AccessToken,
		config.FieldAppKey:      e.AppKey,
	}
}

// Fields returns every wire field, including the signature.
func (e *Envelope) Fields() map[string]string {
	fields := e.UnsignedFields()
	fields[config.FieldSign] = e.Sign
	return fields
}

// Values returns the envelope as query parameters.
func (e *Envelope) Values() url.Values {
	values := make(url.Values, 7)
	for k, v := range e.Fields() {
		values.Set(k, v)
	}
	return values
}

// ResponseKey returns the top-level key the gateway nests a procedure's result under,
// e.g. "jingdong.ldop.waybill.query" -> "jingdong_ldop_waybill_query_responce".
func ResponseKey(method string) string {
	return strings.ReplaceAll(method, ".", "_") + responseKeySuffix
}

// ValidateMethod checks that method is a dotted procedure identifier.
func ValidateMethod(method string) error {
	if method == "" {
		return errors.Wrap(ErrInvalidMethod, "procedure name is required")
	}
	if !methodPattern.MatchString(method) {
		return errors.Wrapf(ErrInvalidMethod, "procedure name %q is not a dotted identifier", method)
	}
	return nil
}

// MarshalPayload serializes a business payload to the string carried in the payload field.
// HTML characters are left unescaped and there is no trailing newline. A nil payload becomes "{}".
// Pass json.RawMessage to send pre-serialized JSON; it is compacted, keeping its key order.
func MarshalPayload(payload any) (string, error) {
	if payload == nil {
		return "{}", nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return "", errors.Wrap(err, "failed to serialize payload")
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
