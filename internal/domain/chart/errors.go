package chart

import "errors"

// ErrInvalidGraphType indicates a graph type outside the supported set.
var ErrInvalidGraphType = errors.New("invalid graph type")
