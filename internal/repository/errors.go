package repository

import "github.com/pkg/errors"

var ErrDBNotReady = errors.New("database not initialized")
