package generatedresumes

import "errors"

// ErrNotFound indicates the document does not exist for the caller's session.
var ErrNotFound = errors.New("not found")
