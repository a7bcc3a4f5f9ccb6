package htmlx

import "errors"

var errEmptyBody = errors.New("empty body")
