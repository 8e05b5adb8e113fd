package ham

import "errors"

var (
	// ErrIndexOutOfRange indicates a CSR access outside the matrix.
	ErrIndexOutOfRange = errors.New("ham: index out of range")

	// ErrVectorLength indicates a vector whose length differs from the matrix order.
	ErrVectorLength = errors.New("ham: vector length mismatch")
)
