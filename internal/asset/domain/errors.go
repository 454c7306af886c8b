package domain

import "errors"

var ErrNotFound = errors.New("insured asset not found")
