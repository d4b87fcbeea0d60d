package hcl

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/precomp/internal/config"
	"github.com/vk/precomp/internal/conv"
	"github.com/vk/precomp/internal/ctxlog"
)

// isExprDefined checks if an HCL expression was actually present in the source
// code. The HCL decoder populates omitted optional fields with non-nil,
// zero-width expression objects, so a nil check is insufficient.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}

	// A real attribute occupies bytes in the file, while a placeholder for an
	// omitted optional attribute has a zero-width range.
	exprRange := expr.Range()
	isDefined := exprRange.End.Byte > exprRange.Start.Byte

	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", exprRange.String(),
		"is_defined", isDefined,
	)
	return isDefined
}

// sourceOf formats a range as "file:line".
func sourceOf(r hcl.Range) string {
	return fmt.Sprintf("%s:%d", r.Filename, r.Start.Line)
}

// valueText converts an attribute value into fixup text.
func valueText(v cty.Value) (string, error) {
	if v.IsNull() {
		return "", nil
	}
	if !v.IsWhollyKnown() {
		return "", fmt.Errorf("value is not known")
	}
	ty := v.Type()
	switch {
	case ty == cty.Bool:
		return conv.FormatBool(v.True()), nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		parts := make([]string, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			if !elem.Type().IsPrimitiveType() {
				return "", fmt.Errorf("a list may only contain numbers, strings or bools")
			}
			s, err := valueText(elem)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, " "), nil
	case ty.IsPrimitiveType():
		s, err := convert.Convert(v, cty.String)
		if err != nil {
			return "", err
		}
		return s.AsString(), nil
	}
	return "", fmt.Errorf("a value of type %s cannot be used as text", ty.FriendlyName())
}

// exprText evaluates an expression and converts the result to fixup text.
func exprText(expr hcl.Expression, what string) (string, hcl.Diagnostics) {
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return "", diags
	}
	s, err := valueText(v)
	if err != nil {
		r := expr.Range()
		return "", hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid " + what,
			Detail:   err.Error(),
			Subject:  &r,
		}}
	}
	return s, nil
}

// exprPairs reads an object expression as key/value pairs, keeping the order
// they are written in.
func exprPairs(expr hcl.Expression, what string) ([]config.Property, hcl.Diagnostics) {
	pairs, diags := hcl.ExprMap(expr)
	if diags.HasErrors() {
		return nil, diags
	}
	out := make([]config.Property, 0, len(pairs))
	for _, pair := range pairs {
		key, keyDiags := exprText(pair.Key, what+" key")
		diags = append(diags, keyDiags...)
		value, valueDiags := exprText(pair.Value, what+" value")
		diags = append(diags, valueDiags...)
		if keyDiags.HasErrors() || valueDiags.HasErrors() {
			continue
		}
		out = append(out, config.Property{Key: key, Value: value})
	}
	return out, diags
}

// orderedAttributes returns a body's attributes in source order.
func orderedAttributes(body hcl.Body) ([]*hcl.Attribute, hcl.Diagnostics) {
	attrs, diags := body.JustAttributes()
	out := make([]*hcl.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, attr)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Range.Start.Byte < out[j].Range.Start.Byte
	})
	return out, diags
}
