package domain

import "github.com/dmehra2102/storefront/pkg/apperr"

// Method is how the shopper pays. Both are settled offline and checked by an
// administrator.
type Method string

const (
	MethodCOD Method = "COD"
	MethodQR  Method = "QR"
)

var (
	ErrUnknownMethod = apperr.New(apperr.KindUserInput, "unknown payment method")
	ErrProofRequired = apperr.New(apperr.KindUserInput, "a payment screenshot is required for QR payments")
	ErrInvalidProof  = apperr.New(apperr.KindUserInput, "the payment screenshot must be an image of at most 5 MB")
)

func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodCOD, MethodQR:
		return m, nil
	default:
		return "", ErrUnknownMethod
	}
}

// RequiresProof reports whether an order paid with m must carry a screenshot
// of the transfer.
func (m Method) RequiresProof() bool {
	return m == MethodQR
}
