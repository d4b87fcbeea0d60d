// Package operation compiles declarative "operation" blocks into reusable
// evaluators. An operation reads typed variables from an instance's fixups,
// evaluates a sandboxed expression and writes the result back as a fixup.
package operation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vk/precomp/internal/config"
	"github.com/vk/precomp/internal/ctxlog"
	"github.com/vk/precomp/internal/fixup"
	"github.com/vk/precomp/internal/opexpr"
)

// Declaration is a variable the expression may read.
type Declaration struct {
	Name string
	Kind Kind
}

// Operation is a compiled operation. It is immutable and safe for concurrent
// use, as long as each goroutine applies it to a different instance.
type Operation struct {
	name      string
	decls     []Declaration
	src       string
	expr      opexpr.Node
	resultVar string
	logger    *slog.Logger
}

// Compile builds an operation from a block. Recognised keys, ignoring case,
// are "$name" (declares a variable with the value as its type), "op" and
// "resultvar". Every error is a *ConfigError.
func Compile(ctx context.Context, block *config.Block) (*Operation, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Compiling operation.", "operation", block.Name, "source", block.Source)

	var (
		decls     []Declaration
		expr      string
		resultVar string
	)
	for _, prop := range block.Properties {
		key := strings.ToLower(prop.Key)
		switch {
		case strings.HasPrefix(key, "$"):
			kind, err := ParseKind(prop.Value)
			if err != nil {
				return nil, &ConfigError{Block: block, Err: err}
			}
			decls = append(decls, Declaration{Name: key[1:], Kind: kind})
		case key == "op":
			expr = prop.Value
		case key == "resultvar":
			resultVar = prop.Value
		default:
			return nil, &ConfigError{Block: block, Err: fmt.Errorf("%w %q", ErrInvalidKey, prop.Key)}
		}
	}

	op, err := New(decls, expr, resultVar)
	if err != nil {
		return nil, &ConfigError{Block: block, Err: err}
	}
	op.name = block.Name
	op.logger = logger.With("operation", block.Name)
	logger.Debug("Operation compiled.", "operation", block.Name, "variables", len(decls), "resultvar", op.resultVar)
	return op, nil
}

// New builds an operation from declarations, expression text and the name of
// the result variable. Dollar signs in the expression and names are ignored.
func New(decls []Declaration, expr, resultVar string) (*Operation, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, ErrNoOperation
	}
	resultVar = strings.TrimPrefix(strings.TrimSpace(resultVar), "$")
	if resultVar == "" {
		return nil, ErrNoDestination
	}

	names := make([]string, 0, len(decls))
	clean := make([]Declaration, 0, len(decls))
	seen := make(map[string]bool, len(decls))
	for _, d := range decls {
		name := strings.ToLower(strings.TrimPrefix(d.Name, "$"))
		switch {
		case name == "":
			return nil, ErrEmptyName
		case strings.HasPrefix(name, "_"):
			return nil, fmt.Errorf("%q is %w", name, ErrReservedName)
		case seen[name]:
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		seen[name] = true
		names = append(names, name)
		clean = append(clean, Declaration{Name: name, Kind: d.Kind})
	}

	src := strings.ReplaceAll(expr, "$", "")
	node, err := opexpr.Check(src, names)
	if err != nil {
		return nil, err
	}
	return &Operation{
		name:      resultVar,
		decls:     clean,
		src:       src,
		expr:      node,
		resultVar: resultVar,
		logger:    slog.Default(),
	}, nil
}

// Name is the block name, or the result variable for operations built with
// New.
func (o *Operation) Name() string { return o.name }

// ResultVar is the fixup the result is written to.
func (o *Operation) ResultVar() string { return o.resultVar }

// Declarations returns the declared variables in order.
func (o *Operation) Declarations() []Declaration {
	return append([]Declaration(nil), o.decls...)
}

func (o *Operation) String() string {
	return fmt.Sprintf("<Operation %s: $%s = %s>", o.name, o.resultVar, o.src)
}

// Eval computes the result for an instance without writing it. A top-level
// boolean result is written as 0 or 1.
func (o *Operation) Eval(inst fixup.Holder) (string, error) {
	table := inst.Fixups()
	vars := make(map[string]any, len(o.decls))
	for _, d := range o.decls {
		vars[d.Name] = d.Kind.convert(table.Get(d.Name, ""))
	}
	v, err := opexpr.Eval(o.expr, vars)
	if err != nil {
		return "", err
	}
	if b, ok := v.(bool); ok {
		v = int64(0)
		if b {
			v = int64(1)
		}
	}
	return opexpr.Str(v), nil
}

// Apply evaluates the operation and stores the result on the instance. If
// evaluation fails the error is logged and the fixups are left unchanged.
func (o *Operation) Apply(inst fixup.Holder) {
	result, err := o.Eval(inst)
	if err != nil {
		o.logger.Warn("Operation failed, result not written.",
			"instance", instanceName(inst),
			"resultvar", o.resultVar,
			"error", err,
		)
		return
	}
	inst.Fixups().Set(o.resultVar, result)
}

func instanceName(inst fixup.Holder) string {
	if s, ok := inst.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", inst)
}
