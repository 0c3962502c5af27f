package codec

import "fmt"

var (
	errTrailing           = fmt.Errorf("trailing input after closing paren")
	errUnterminated       = fmt.Errorf("unterminated form")
	errEmptyType          = fmt.Errorf("empty type name")
	errUnknownValueKind   = fmt.Errorf("unsupported value kind")
	errTruthArity         = fmt.Errorf("SimpleTruthValue requires exactly two components")
	errArityMismatch      = fmt.Errorf("child GUID count does not match outgoing set size")
	errMissingType        = fmt.Errorf("wire object missing type field")
	errNeitherNodeNorLink = fmt.Errorf("wire object has neither name nor outgoing")
	errNotAStringSlice    = fmt.Errorf("expected a slice of strings")
	errNotAStringMap      = fmt.Errorf("expected a map of strings")
)

func errExpected(c byte) error {
	return fmt.Errorf("expected %q", c)
}

func errUnknownType(name string) error {
	return fmt.Errorf("unknown type %q", name)
}

func errUnknownTag(tag string) error {
	return fmt.Errorf("unknown value tag %q", tag)
}
