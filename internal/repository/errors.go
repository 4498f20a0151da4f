package repository

import "errors"

var ErrEmptyKey = errors.New("key is empty")
