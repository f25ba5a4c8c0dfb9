package signing

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upperHex32 = regexp.MustCompile(`^[0-9A-F]{32}$`)

func testFields() map[string]string {
	return map[string]string{
		"360buy_param_json": `{"deliveryId":"VA1","customerCode":"C1"}`,
		"v":                 "2.0",
		"method":            "jingdong.ldop.waybill.query",
		"timestamp":         "2018-06-29 17:27:59",
		"access_token":      "T1",
		"app_key":           "K1",
	}
}

func TestSign_KnownVectors(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]string
		secret   string
		expected string
	}{
		{
			name:     "waybill query envelope",
			fields:   testFields(),
			secret:   "S3CRET",
			expected: "AE708712FA889B76B4496193DD5A6EA1",
		},
		{
			name:     "empty field set hashes secret twice",
			fields:   map[string]string{},
			secret:   "secret",
			expected: "D98221BB33CB9193E00FC7AC1E0E02A9",
		},
		{
			name:     "upper case sorts before lower case",
			fields:   map[string]string{"a": "y", "B": "x"},
			secret:   "k",
			expected: "81884D01503B57B6B6AAE0848320ADAA",
		},
		{
			name:     "digits compare byte-wise not numerically",
			fields:   map[string]string{"2": "y", "10": "x"},
			secret:   "k",
			expected: "071559F229B1E69EA16A397CFDF440E8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sign(tt.fields, tt.secret))
		})
	}
}

func TestSign_DoesNotLeakSecret(t *testing.T) {
	secret := "S3CRET"
	sig := Sign(testFields(), secret)
	require.Regexp(t, upperHex32, sig)
	assert.NotContains(t, sig, secret)
	assert.NotContains(t, sig, strings.ToUpper(secret))
}

func TestSign_ValueChangeChangesSignature(t *testing.T) {
	fields := testFields()
	base := Sign(fields, "S3CRET")

	fields["timestamp"] = "2018-06-29 17:28:00"
	assert.NotEqual(t, base, Sign(fields, "S3CRET"))
}

func TestSignEnvelope_IgnoresSignatureField(t *testing.T) {
	fields := testFields()
	expected := Sign(fields, "S3CRET")

	withSig := testFields()
	withSig[SignatureField] = "DEADBEEF"

	assert.Equal(t, expected, SignEnvelope(withSig, "S3CRET"))
	assert.Equal(t, expected, SignEnvelope(fields, "S3CRET"))
	// the caller's map is left untouched
	assert.Equal(t, "DEADBEEF", withSig[SignatureField])
}
