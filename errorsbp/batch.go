package errorsbp

import (
	"errors"
	"strconv"
	"strings"
)

var (
	_ error = Batch{}
	_ error = (*Batch)(nil)
)

// Batch is an error that can contain multiple errors.
//
// The zero value of Batch is valid (with no errors) and ready to use.
// errors.Is and errors.As see every error in the batch.
type Batch struct {
	errors []error
}

func (be Batch) Error() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(len(be.errors)))
	sb.WriteString(" errors")
	for i, err := range be.errors {
		if i == 0 {
			sb.WriteString(": ")
		} else {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Unwrap returns the errors in the batch.
func (be Batch) Unwrap() []error {
	return be.errors
}

// As sets *v to the batch itself when v is a *Batch or **Batch.
//
// Other targets are matched against the errors in the batch through Unwrap.
func (be Batch) As(v interface{}) bool {
	switch target := v.(type) {
	case *Batch:
		*target = be
		return true
	case **Batch:
		*target = &be
		return true
	}
	return false
}

// Len returns the size of the batch.
func (be Batch) Len() int {
	return len(be.errors)
}

// Add adds non-nil errors into the batch.
//
// A Batch added is flattened into its errors, so batches never nest.
func (be *Batch) Add(errs ...error) {
	be.AddPrefix("", errs...)
}

// AddPrefix is Add with every error prefixed by prefix, see PrefixError.
func (be *Batch) AddPrefix(prefix string, errs ...error) {
	for _, err := range errs {
		if err == nil {
			continue
		}
		var batch Batch
		if !errors.As(err, &batch) {
			be.errors = append(be.errors, PrefixError(prefix, err))
			continue
		}
		for _, inner := range batch.errors {
			be.errors = append(be.errors, PrefixError(prefix, inner))
		}
	}
}

// Compile returns nil for an empty batch, the only error for a batch of one,
// and the batch itself otherwise.
func (be Batch) Compile() error {
	switch len(be.errors) {
	case 0:
		return nil
	case 1:
		return be.errors[0]
	default:
		return be
	}
}

// GetErrors returns a copy of the errors in the batch.
func (be Batch) GetErrors() []error {
	return append([]error(nil), be.errors...)
}

// BatchSize returns the Len of err when it's a Batch,
// and otherwise 1 for a non-nil err and 0 for nil.
func BatchSize(err error) int {
	if err == nil {
		return 0
	}
	var be Batch
	if errors.As(err, &be) {
		return be.Len()
	}
	return 1
}
