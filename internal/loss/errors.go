package loss

import "errors"

// ErrMissingWeights is returned by weighted losses called without example weights.
var ErrMissingWeights = errors.New("loss: example weights required")
