package models

import "errors"

var (
	ErrInvalidSymbol     = errors.New("invalid symbol")
	ErrInvalidRuleID     = errors.New("invalid rule ID")
	ErrInvalidRuleName   = errors.New("invalid rule name")
	ErrInvalidWeight     = errors.New("rule weight must not be negative")
	ErrInvalidField      = errors.New("invalid field name")
	ErrInvalidOperator   = errors.New("invalid operator")
	ErrRecordNotFound    = errors.New("record not found")
	ErrTaskNotFound      = errors.New("task not found")
	ErrTaskTerminal      = errors.New("task already in a terminal state")
	ErrPresetNotFound    = errors.New("preset not found")
	ErrGroupNotFound     = errors.New("watchlist group not found")
	ErrDataUnavailable   = errors.New("market data unavailable")
	ErrAlreadyRegistered = errors.New("already registered")
)
