// Package metaerr attaches structured key/value metadata to errors, so that
// context gathered deep in a call chain can be logged at the top without
// stuffing it all into the error message.
package metaerr

import "errors"

type metaError struct {
	err  error
	meta []any
}

func (e *metaError) Error() string {
	return e.err.Error()
}

func (e *metaError) Unwrap() error {
	return e.err
}

// WithMetadata annotates err with alternating key/value pairs.
// The pairs are meant to be passed to a slog logger via With.
func WithMetadata(err error, kvs ...any) error {
	if err == nil {
		return nil
	}
	if len(kvs)%2 != 0 {
		kvs = append(kvs, "(MISSING)")
	}
	return &metaError{
		err:  err,
		meta: kvs,
	}
}

// GetMetadata collects the metadata of all wrapped errors in err's chain,
// outermost first.
func GetMetadata(err error) []any {
	var kvs []any
	for err != nil {
		var me *metaError
		if !errors.As(err, &me) {
			break
		}
		kvs = append(kvs, me.meta...)
		err = me.err
	}
	return kvs
}
