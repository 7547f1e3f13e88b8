package config

import "errors"

var (
	ErrNotLoaded      = errors.New("config not loaded")
	ErrConfigNotFound = errors.New("config file not found")
	ErrUnknownHandler = errors.New("unknown handler")
	ErrUnknownFactory = errors.New("unknown data factory")
	ErrUnknownCommon  = errors.New("unknown common handler")
	ErrUnknownState   = errors.New("unknown state")
	ErrInvalidTable   = errors.New("invalid table")
)
