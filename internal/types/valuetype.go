// internal/types/valuetype.go
package types

import (
	"fmt"
	"strings"
)

/*
 * Parameter value types.
 *
 * Channel metadata stores argument types as strings: simple names
 * ("String", "Number", "Date", ...) or parameterized forms
 * ("Measure(C)", "Array(String)", "Entity(tt:url)", "Enum(on,off)").
 * ParseType turns them into Type; Type.String reverses the mapping so two
 * types compare equal exactly when their strings do.
 */

// TypeKind enumerates value type families.
type TypeKind int

const (
	TypeAny TypeKind = iota
	TypeString
	TypeNumber
	TypeBoolean
	TypeMeasure
	TypeArray
	TypeEntity
	TypeEnum
	TypeDate
	TypeTime
	TypeLocation
	TypeEmailAddress
	TypePhoneNumber
	TypeUsername
	TypeURL
	TypeHashtag
	TypePicture
)

var simpleTypes = map[string]TypeKind{
	"Any":          TypeAny,
	"String":       TypeString,
	"Number":       TypeNumber,
	"Boolean":      TypeBoolean,
	"Date":         TypeDate,
	"Time":         TypeTime,
	"Location":     TypeLocation,
	"EmailAddress": TypeEmailAddress,
	"PhoneNumber":  TypePhoneNumber,
	"Username":     TypeUsername,
	"URL":          TypeURL,
	"Hashtag":      TypeHashtag,
	"Picture":      TypePicture,
}

// Type is a parsed parameter type.
type Type struct {
	Kind    TypeKind
	Unit    string   // Measure base unit
	Elem    *Type    // Array element
	Entity  string   // Entity type, e.g. "tt:url"
	Entries []string // Enum values
}

// ParseType parses a type string. Returns ErrInvalidType on malformed input.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if k, ok := simpleTypes[s]; ok {
		return Type{Kind: k}, nil
	}

	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return Type{}, fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	head, inner := s[:open], s[open+1:len(s)-1]

	switch head {
	case "Measure":
		if inner == "" {
			return Type{}, fmt.Errorf("%w: %q", ErrInvalidType, s)
		}
		return Type{Kind: TypeMeasure, Unit: inner}, nil
	case "Array":
		elem, err := ParseType(inner)
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: TypeArray, Elem: &elem}, nil
	case "Entity":
		if inner == "" {
			return Type{}, fmt.Errorf("%w: %q", ErrInvalidType, s)
		}
		return Type{Kind: TypeEntity, Entity: inner}, nil
	case "Enum":
		entries := strings.Split(inner, ",")
		for i := range entries {
			entries[i] = strings.TrimSpace(entries[i])
			if entries[i] == "" {
				return Type{}, fmt.Errorf("%w: %q", ErrInvalidType, s)
			}
		}
		return Type{Kind: TypeEnum, Entries: entries}, nil
	default:
		return Type{}, fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

// MustParseType is ParseType for literals known to be valid.
func MustParseType(s string) Type {
	t, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Type) String() string {
	switch t.Kind {
	case TypeMeasure:
		return "Measure(" + t.Unit + ")"
	case TypeArray:
		if t.Elem == nil {
			return "Array(Any)"
		}
		return "Array(" + t.Elem.String() + ")"
	case TypeEntity:
		return "Entity(" + t.Entity + ")"
	case TypeEnum:
		return "Enum(" + strings.Join(t.Entries, ",") + ")"
	}
	for name, k := range simpleTypes {
		if k == t.Kind {
			return name
		}
	}
	return "Any"
}

// Equal compares types structurally.
func (t Type) Equal(o Type) bool {
	return t.String() == o.String()
}
