// Package validator turns raw submitted bytes into typed candidate
// objects, checking structural well-formedness and signature validity.
// It holds no state and never touches the store, so submissions can be
// validated fully in parallel.
package validator

import (
	"bytes"
	"fmt"

	"github.com/lodeworks/mooring/core/mooring"
	"github.com/lodeworks/mooring/core/object"
)

type Validator struct {
	metrics metrics
}

// New constructs a Validator.
func New() *Validator {
	return &Validator{
		metrics: newMetrics(),
	}
}

// Validate decodes data and checks the declared signature. Structural
// failures wrap mooring.ErrStructural, forged or corrupt signatures
// wrap mooring.ErrSignature.
func (v *Validator) Validate(data []byte) (object.Object, error) {
	o, err := object.Unmarshal(data)
	if err != nil {
		v.metrics.StructuralFailCounter.Inc()
		return nil, fmt.Errorf("%w: %v", mooring.ErrStructural, err)
	}

	// the decoder accepts exact layouts only, so a re-encode mismatch
	// means the claimed identifier does not belong to these bytes
	if !bytes.Equal(o.Marshal(), data) {
		v.metrics.StructuralFailCounter.Inc()
		return nil, fmt.Errorf("%w: encoding is not canonical", mooring.ErrStructural)
	}

	if err := o.Verify(); err != nil {
		v.metrics.SignatureFailCounter.Inc()
		return nil, err
	}

	v.metrics.ValidCounter.Inc()
	return o, nil
}
