package sig

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clrmeta/clrmeta/bin"
	"github.com/clrmeta/clrmeta/errs"
)

// guidPayload renders id as the NUL-terminated canonical hyphenated string a
// CustomMarshalDescriptor blob stores its GUID field as (37 bytes: 36-char
// canonical form plus the trailing NUL).
func guidPayload(id uuid.UUID) string {
	return id.String() + "\x00"
}

// CustomMarshalDescriptor is the NATIVE_TYPE_CUSTOMMARSHALER (0x2C) subtree
// of a FieldMarshal blob: a GUID identifying the marshaler's COM class
// (usually zero for managed-only marshalers), the unmanaged type name, the
// managed marshaler type name, and an opaque cookie string passed to the
// marshaler's constructor.
type CustomMarshalDescriptor struct {
	GUID      uuid.UUID
	Unmanaged string
	Managed   string
	Cookie    string
}

// DecodeCustomMarshalDescriptor reads the native-type tag byte plus the four
// fields of a CustomMarshalDescriptor. A GUID field that fails to parse as a
// UUID is silently treated as uuid.Nil rather than failing the whole decode,
// matching how permissive real-world marshaling metadata tends to be about
// this rarely-populated field.
func DecodeCustomMarshalDescriptor(r *bin.Reader) (*CustomMarshalDescriptor, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if tag != NativeTypeCustomMarshal {
		return nil, fmt.Errorf("sig: expected NATIVE_TYPE_CUSTOMMARSHALER tag 0x2C, got 0x%02x: %w", tag, errs.ErrMalformedSignature)
	}
	guidStr, _, err := r.ReadSerString()
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(strings.TrimRight(guidStr, "\x00"))
	if err != nil {
		id = uuid.Nil
	}
	unmanaged, _, err := r.ReadSerString()
	if err != nil {
		return nil, err
	}
	managed, _, err := r.ReadSerString()
	if err != nil {
		return nil, err
	}
	cookie, _, err := r.ReadSerString()
	if err != nil {
		return nil, err
	}
	return &CustomMarshalDescriptor{GUID: id, Unmanaged: unmanaged, Managed: managed, Cookie: cookie}, nil
}

// Encode writes the native-type tag byte followed by the GUID (as its
// NUL-terminated canonical string form), unmanaged type, managed type, and
// cookie, each as a serialised string.
func (d *CustomMarshalDescriptor) Encode(w *bin.Writer) error {
	if err := w.WriteByte(NativeTypeCustomMarshal); err != nil {
		return err
	}
	if err := w.WriteSerString(guidPayload(d.GUID), false); err != nil {
		return err
	}
	if err := w.WriteSerString(d.Unmanaged, false); err != nil {
		return err
	}
	if err := w.WriteSerString(d.Managed, false); err != nil {
		return err
	}
	return w.WriteSerString(d.Cookie, false)
}

// PhysicalLength returns the byte length Encode would emit for d.
func (d *CustomMarshalDescriptor) PhysicalLength() int {
	guidStr := guidPayload(d.GUID)
	n := 1
	n += bin.SerStringSize(guidStr, false)
	n += bin.SerStringSize(d.Unmanaged, false)
	n += bin.SerStringSize(d.Managed, false)
	n += bin.SerStringSize(d.Cookie, false)
	return n
}

