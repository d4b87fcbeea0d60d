package opexpr

import "errors"

// Errors reported while parsing and validating an expression. They are
// wrapped with details; test for them with errors.Is.
var (
	ErrSyntax           = errors.New("syntax error")
	ErrNotExpression    = errors.New("not an expression")
	ErrNotPermitted     = errors.New("not permitted")
	ErrBannedComparison = errors.New("comparison operator not allowed")
	ErrUnknownVariable  = errors.New("invalid variable name")
	ErrWriteVariable    = errors.New("only reading variables is supported")
)

// ErrEval is wrapped by every error raised while evaluating an expression.
var ErrEval = errors.New("evaluation failed")
