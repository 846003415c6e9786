package signature

import "context"

// FormatXML is the only document format signed by the engine
const FormatXML = "xml"

// Verifier checks the digital signature of a document
type Verifier interface {
	// Verify returns the detailed check outcome. A non-nil error means the
	// document could not be examined at all.
	Verify(ctx context.Context, data []byte) (*VerificationResult, error)

	// CanVerify returns true if this verifier can handle the given data
	CanVerify(data []byte) bool
}

// Signer produces a signed copy of a document
type Signer interface {
	Sign(data []byte) ([]byte, error)
}
