package catalog

import "errors"

// ErrRetrievalFailure is returned when the catalog exists but cannot be read
var ErrRetrievalFailure = errors.New("catalog retrieval failure")
