package inMemoryTransportSigner

import (
	"fmt"

	"github.com/jdwl-go/jdwl/pkg/signing"
	"github.com/jdwl-go/jdwl/pkg/transportSigner"
	"go.uber.org/zap"
)

type InMemoryTransportSigner struct {
	logger    *zap.Logger
	appSecret string
}

var _ transportSigner.IEnvelopeSigner = (*InMemoryTransportSigner)(nil)

// NewMD5InMemoryTransportSigner returns a signer that keeps the app secret in process memory.
func NewMD5InMemoryTransportSigner(appSecret string, logger *zap.Logger) (*InMemoryTransportSigner, error) {
	if appSecret == "" {
		return nil, fmt.Errorf("app secret is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &InMemoryTransportSigner{
		logger:    logger,
		appSecret: appSecret,
	}, nil
}

func (its *InMemoryTransportSigner) SignFields(fields map[string]string) (string, error) {
	if len(fields) == 0 {
		return "", fmt.Errorf("no fields to sign")
	}
	sig := signing.SignEnvelope(fields, its.appSecret)
	its.logger.Sugar().Debugw("Signed envelope", "field_count", len(fields), "method", fields["method"])
	return sig, nil
}
