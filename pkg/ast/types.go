package ast

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Type is the scalar type of a value, or the inferred-type sentinel used
// while a declaration or function return type is still unresolved.
type Type int

const (
	TypeInfer Type = iota
	TypeInt
	TypeFloat
)

var typeNames = map[Type]string{
	TypeInfer: "infer",
	TypeInt:   "int",
	TypeFloat: "float",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// MarshalJSON renders the type by name in AST dumps.
func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// DimUnknown marks an array dimension whose size is not known, e.g. the
// element count of an empty array literal.
const DimUnknown = -1

// TypeInfo describes the type of an expression, variable or function return.
// Dims carries array dimensions outermost first. Next chains additional
// entries for multi-return tuples; a plain scalar has a nil Next.
type TypeInfo struct {
	Type Type      `json:"type"`
	Dims []int     `json:"dims,omitempty"`
	Next *TypeInfo `json:"next,omitempty"`
}

// NewTypeInfo creates a scalar TypeInfo.
func NewTypeInfo(t Type) *TypeInfo {
	return &TypeInfo{Type: t}
}

// Clone deep-copies the TypeInfo chain. Type information is copied, not
// aliased, when it moves between owners; the one exception is a function
// symbol, which shares its declaration's TypeInfo.
func (ti *TypeInfo) Clone() *TypeInfo {
	if ti == nil {
		return nil
	}
	c := &TypeInfo{Type: ti.Type}
	if ti.Dims != nil {
		c.Dims = append([]int(nil), ti.Dims...)
	}
	c.Next = ti.Next.Clone()
	return c
}

// Equal reports whether two TypeInfo chains describe the same type shape.
// Unknown dimensions compare equal to any size.
func (ti *TypeInfo) Equal(other *TypeInfo) bool {
	if ti == nil || other == nil {
		return ti == other
	}
	if ti.Type != other.Type || len(ti.Dims) != len(other.Dims) {
		return false
	}
	for i, d := range ti.Dims {
		if d != other.Dims[i] && d != DimUnknown && other.Dims[i] != DimUnknown {
			return false
		}
	}
	return ti.Next.Equal(other.Next)
}

// IsArray reports whether the type carries array dimensions.
func (ti *TypeInfo) IsArray() bool {
	return ti != nil && len(ti.Dims) > 0
}

// String renders the chain, e.g. "int", "float[3]" or "(int, float)".
func (ti *TypeInfo) String() string {
	if ti == nil {
		return "<nil>"
	}
	if ti.Next == nil {
		return ti.one()
	}
	var parts []string
	for cur := ti; cur != nil; cur = cur.Next {
		parts = append(parts, cur.one())
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (ti *TypeInfo) one() string {
	s := ti.Type.String()
	for _, d := range ti.Dims {
		if d == DimUnknown {
			s += "[]"
		} else {
			s += fmt.Sprintf("[%d]", d)
		}
	}
	return s
}
