package eventstream

import "errors"

// ErrNilEntryEvent indicates a nil event payload was provided to a publisher.
var ErrNilEntryEvent = errors.New("nil entry event")
