// ABOUTME: Resource kinds managed from the admin console and their field schemas.
// ABOUTME: Kind is a closed set; each kind decodes its own records and describes its edit form.

package resource

import (
	"encoding/json"
	"strings"
	"unicode"
)

// Kind is one resource collection of the shop API. The set is closed: the
// unexported method keeps implementations inside this package.
type Kind interface {
	// ID is the collection path segment and section id ("products").
	ID() string
	Label() string
	// Singular is used in modal titles ("Product").
	Singular() string
	Columns() []string
	Decode(raw json.RawMessage) (Record, error)
	// UpdateFields returns the edit schema populated from rec. A nil or
	// foreign record yields the schema with empty values.
	UpdateFields(rec Record) []Field
	// CreateForm returns the create form, if the kind has one.
	CreateForm() (CreateForm, bool)

	kind()
}

// Record is one decoded row of a collection.
type Record interface {
	RecordID() string
	// DisplayName names the record in delete confirmations.
	DisplayName() string
	Cells() []Cell

	record()
}

// Cell is one rendered table cell.
type Cell struct {
	Text string
	// Badge is the status badge class suffix, empty for plain cells.
	Badge string
}

// FieldType is the input control of a field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldPassword FieldType = "password"
	FieldSelect   FieldType = "select"
	FieldTextarea FieldType = "textarea"
)

// Option is one choice of a select field.
type Option struct {
	Value string
	Label string
}

// Field describes one form input.
type Field struct {
	ID       string
	Label    string
	Type     FieldType
	Required bool
	Options  []Option
	Value    string
}

// Key is the payload key of an update field: the id without its "update"
// prefix, in snake_case. updateQuantityType becomes quantity_type.
func (f Field) Key() string {
	name := strings.TrimPrefix(f.ID, "update")
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Selected reports whether opt is the field's current value.
func (f Field) Selected(opt Option) bool {
	return f.Value == opt.Value
}

// Values is the read side of submitted form data. url.Values satisfies it.
type Values interface {
	Get(key string) string
}

// BuildUpdate assembles a partial update payload. Only fields with a
// non-empty submitted value are included, under their derived key.
func BuildUpdate(fields []Field, values Values) map[string]string {
	payload := make(map[string]string, len(fields))
	for _, f := range fields {
		v := values.Get(f.ID)
		if v == "" {
			continue
		}
		payload[f.Key()] = v
	}
	return payload
}

// WithValues returns a copy of fields whose values come from values, used to
// redisplay a rejected edit form as the operator left it.
func WithValues(fields []Field, values Values) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		f.Value = values.Get(f.ID)
		if f.Type == FieldPassword {
			f.Value = ""
		}
		out[i] = f
	}
	return out
}

// Owns reports whether rec was decoded by k.
func Owns(k Kind, rec Record) bool {
	switch rec.(type) {
	case *Product:
		return k == Products
	case *Order:
		return k == Orders
	case *User:
		return k == Users
	case *FAQEntry:
		return k == FAQ
	case *UnansweredQuestion:
		return k == Unanswered
	case *Role:
		return k == Roles
	}
	return false
}

// Editable reports whether records of k can be edited.
func Editable(k Kind) bool {
	return len(k.UpdateFields(nil)) > 0
}

var all = []Kind{Products, Orders, Users, FAQ, Unanswered, Roles}

// All returns every kind in display order.
func All() []Kind {
	out := make([]Kind, len(all))
	copy(out, all)
	return out
}

// Lookup finds a kind by id.
func Lookup(id string) (Kind, bool) {
	for _, k := range all {
		if k.ID() == id {
			return k, true
		}
	}
	return nil, false
}
