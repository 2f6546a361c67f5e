package prompts

import "errors"

// ErrNotFound indicates the prompt does not exist.
var ErrNotFound = errors.New("prompt not found")

// ErrPromptLimit indicates the tier's per-project prompt cap is reached.
var ErrPromptLimit = errors.New("prompt limit reached")

// ErrInvalidInput indicates a validation failure on caller-supplied fields.
var ErrInvalidInput = errors.New("invalid prompt input")
