package fits

import "errors"

// ErrDecode reports a malformed metadata block, an unparsable observation
// timestamp, or a pixel block that does not match the declared dimensions.
// Handled like protocol corruption: the connection that produced the frame
// is dropped and redialed.
var ErrDecode = errors.New("frame decode error")
