// ABOUTME: The six resource kinds: products, orders, users, faq, unanswered questions, roles.
// ABOUTME: Record types mirror the API's JSON rows; schemas mirror the edit forms.

package resource

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kinds in display order.
var (
	Products   Kind = productsKind{}
	Orders     Kind = ordersKind{}
	Users      Kind = usersKind{}
	FAQ        Kind = faqKind{}
	Unanswered Kind = unansweredKind{}
	Roles      Kind = rolesKind{}
)

var (
	quantityTypes = []Option{
		{Value: "pcs", Label: "Pieces"},
		{Value: "kg", Label: "Kilograms"},
		{Value: "ltr", Label: "Liters"},
	}
	orderStatuses = []Option{
		{Value: "pending", Label: "Pending"},
		{Value: "processing", Label: "Processing"},
		{Value: "shipped", Label: "Shipped"},
		{Value: "delivered", Label: "Delivered"},
	}
	userRoles = []Option{
		{Value: "End User", Label: "End User"},
		{Value: "Order Admin", Label: "Order Admin"},
		{Value: "Product Admin", Label: "Product Admin"},
		{Value: "Application Admin", Label: "Application Admin"},
		{Value: "System Admin", Label: "System Admin"},
	}
	questionStatuses = []Option{
		{Value: "new", Label: "New"},
		{Value: "reviewed", Label: "Reviewed"},
		{Value: "resolved", Label: "Resolved"},
	}
)

// answerPreviewRunes is how much of an FAQ answer the list shows.
const answerPreviewRunes = 100

func idString(id int64) string { return strconv.FormatInt(id, 10) }

func badge(status string) string { return strings.ToLower(status) }

func decodeInto[T any, PT interface {
	*T
	Record
}](raw json.RawMessage, kind string) (Record, error) {
	v := PT(new(T))
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("decoding %s record: %w", kind, err)
	}
	return v, nil
}

// Product is a row of /products.
type Product struct {
	ProductID    int64       `json:"product_id"`
	ProductName  string      `json:"product_name"`
	CurrentStock json.Number `json:"current_stock"`
	MOQ          json.Number `json:"moq"`
	QuantityType string      `json:"quantity_type"`
}

func (*Product) record() {}
func (p *Product) RecordID() string { return idString(p.ProductID) }
func (p *Product) DisplayName() string { return p.ProductName }
func (p *Product) Cells() []Cell {
	return []Cell{
		{Text: p.RecordID()},
		{Text: p.ProductName},
		{Text: strings.TrimSpace(p.CurrentStock.String() + " " + p.QuantityType)},
		{Text: p.MOQ.String()},
		{Text: p.QuantityType},
	}
}

type productsKind struct{}

func (productsKind) kind() {}
func (productsKind) ID() string { return "products" }
func (productsKind) Label() string { return "Products" }
func (productsKind) Singular() string { return "Product" }
func (productsKind) Columns() []string { return []string{"ID", "Name", "Stock", "MOQ", "Unit"} }

func (productsKind) Decode(raw json.RawMessage) (Record, error) {
	return decodeInto[Product](raw, "product")
}

func (productsKind) UpdateFields(rec Record) []Field {
	p, _ := rec.(*Product)
	if p == nil {
		p = &Product{}
	}
	return []Field{
		{ID: "updateName", Label: "Product Name", Type: FieldText, Required: true, Value: p.ProductName},
		{ID: "updateStock", Label: "Stock", Type: FieldNumber, Value: p.CurrentStock.String()},
		{ID: "updateMoq", Label: "MOQ", Type: FieldNumber, Value: p.MOQ.String()},
		{ID: "updateQuantityType", Label: "Quantity Type", Type: FieldSelect, Options: quantityTypes, Value: p.QuantityType},
	}
}

func (productsKind) CreateForm() (CreateForm, bool) { return productCreateForm, true }

// Order is a row of /orders.
type Order struct {
	OrderID           int64   `json:"order_id"`
	Username          string  `json:"username"`
	ProductName       string  `json:"product_name"`
	Status            string  `json:"status"`
	EstimatedDelivery *string `json:"estimated_delivery"`
}

func (*Order) record() {}
func (o *Order) RecordID() string { return idString(o.OrderID) }
func (o *Order) DisplayName() string { return "Order " + o.RecordID() }
func (o *Order) Cells() []Cell {
	delivery := "Not set"
	if o.EstimatedDelivery != nil && *o.EstimatedDelivery != "" {
		delivery = *o.EstimatedDelivery
	}
	return []Cell{
		{Text: o.RecordID()},
		{Text: o.Username},
		{Text: o.ProductName},
		{Text: o.Status, Badge: badge(o.Status)},
		{Text: delivery},
	}
}

type ordersKind struct{}

func (ordersKind) kind() {}
func (ordersKind) ID() string { return "orders" }
func (ordersKind) Label() string { return "Orders" }
func (ordersKind) Singular() string { return "Order" }
func (ordersKind) Columns() []string {
	return []string{"ID", "Customer", "Product", "Status", "Est. Delivery"}
}

func (ordersKind) Decode(raw json.RawMessage) (Record, error) {
	return decodeInto[Order](raw, "order")
}

func (ordersKind) UpdateFields(rec Record) []Field {
	o, _ := rec.(*Order)
	if o == nil {
		o = &Order{}
	}
	delivery := ""
	if o.EstimatedDelivery != nil {
		delivery = *o.EstimatedDelivery
	}
	return []Field{
		{ID: "updateStatus", Label: "Status", Type: FieldSelect, Options: orderStatuses, Value: o.Status},
		{ID: "updateEstimatedDelivery", Label: "Estimated Delivery", Type: FieldDate, Value: delivery},
	}
}

func (ordersKind) CreateForm() (CreateForm, bool) { return orderCreateForm, true }

// User is a row of /users.
type User struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	RoleName string `json:"role_name"`
}

func (*User) record() {}
func (u *User) RecordID() string { return idString(u.UserID) }
func (u *User) DisplayName() string { return u.Username }
func (u *User) Cells() []Cell {
	return []Cell{{Text: u.RecordID()}, {Text: u.Username}, {Text: u.RoleName}}
}

type usersKind struct{}

func (usersKind) kind() {}
func (usersKind) ID() string { return "users" }
func (usersKind) Label() string { return "Users" }
func (usersKind) Singular() string { return "User" }
func (usersKind) Columns() []string { return []string{"ID", "Username", "Role"} }

func (usersKind) Decode(raw json.RawMessage) (Record, error) {
	return decodeInto[User](raw, "user")
}

// The password field is never prefilled.
func (usersKind) UpdateFields(rec Record) []Field {
	u, _ := rec.(*User)
	if u == nil {
		u = &User{}
	}
	return []Field{
		{ID: "updateUsername", Label: "Username", Type: FieldText, Value: u.Username},
		{ID: "updatePassword", Label: "New Password", Type: FieldPassword},
		{ID: "updateRoleName", Label: "Role", Type: FieldSelect, Options: userRoles, Value: u.RoleName},
	}
}

func (usersKind) CreateForm() (CreateForm, bool) { return userCreateForm, true }

// FAQEntry is a row of /faq.
type FAQEntry struct {
	FAQID    int64  `json:"faq_id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (*FAQEntry) record() {}
func (f *FAQEntry) RecordID() string { return idString(f.FAQID) }
func (f *FAQEntry) DisplayName() string { return "FAQ " + f.RecordID() }
func (f *FAQEntry) Cells() []Cell {
	return []Cell{{Text: f.RecordID()}, {Text: f.Question}, {Text: Truncate(f.Answer, answerPreviewRunes)}}
}

type faqKind struct{}

func (faqKind) kind() {}
func (faqKind) ID() string { return "faq" }
func (faqKind) Label() string { return "FAQ" }
func (faqKind) Singular() string { return "FAQ" }
func (faqKind) Columns() []string { return []string{"ID", "Question", "Answer"} }

func (faqKind) Decode(raw json.RawMessage) (Record, error) {
	return decodeInto[FAQEntry](raw, "faq")
}

func (faqKind) UpdateFields(rec Record) []Field {
	f, _ := rec.(*FAQEntry)
	if f == nil {
		f = &FAQEntry{}
	}
	return []Field{
		{ID: "updateQuestion", Label: "Question", Type: FieldText, Required: true, Value: f.Question},
		{ID: "updateAnswer", Label: "Answer", Type: FieldTextarea, Required: true, Value: f.Answer},
	}
}

func (faqKind) CreateForm() (CreateForm, bool) { return faqCreateForm, true }

// UnansweredQuestion is a row of /unanswered.
type UnansweredQuestion struct {
	UQID     int64  `json:"uq_id"`
	Question string `json:"question"`
	Status   string `json:"status"`
}

func (*UnansweredQuestion) record() {}
func (q *UnansweredQuestion) RecordID() string { return idString(q.UQID) }
func (q *UnansweredQuestion) DisplayName() string { return "Question " + q.RecordID() }
func (q *UnansweredQuestion) Cells() []Cell {
	return []Cell{{Text: q.RecordID()}, {Text: q.Question}, {Text: q.Status, Badge: badge(q.Status)}}
}

type unansweredKind struct{}

func (unansweredKind) kind() {}
func (unansweredKind) ID() string { return "unanswered" }
func (unansweredKind) Label() string { return "Unanswered" }
func (unansweredKind) Singular() string { return "Question" }
func (unansweredKind) Columns() []string { return []string{"ID", "Question", "Status"} }

func (unansweredKind) Decode(raw json.RawMessage) (Record, error) {
	return decodeInto[UnansweredQuestion](raw, "unanswered question")
}

func (unansweredKind) UpdateFields(rec Record) []Field {
	q, _ := rec.(*UnansweredQuestion)
	if q == nil {
		q = &UnansweredQuestion{}
	}
	return []Field{
		{ID: "updateStatus", Label: "Status", Type: FieldSelect, Options: questionStatuses, Value: q.Status},
	}
}

func (unansweredKind) CreateForm() (CreateForm, bool) { return CreateForm{}, false }

// Role is a row of /roles.
type Role struct {
	RoleID   int64  `json:"role_id"`
	RoleName string `json:"role_name"`
}

func (*Role) record() {}
func (r *Role) RecordID() string { return idString(r.RoleID) }
func (r *Role) DisplayName() string { return r.RoleName }
func (r *Role) Cells() []Cell { return []Cell{{Text: r.RecordID()}, {Text: r.RoleName}} }

type rolesKind struct{}

func (rolesKind) kind() {}
func (rolesKind) ID() string { return "roles" }
func (rolesKind) Label() string { return "Roles" }
func (rolesKind) Singular() string { return "Role" }
func (rolesKind) Columns() []string { return []string{"ID", "Role Name"} }
func (rolesKind) UpdateFields(Record) []Field { return nil }

func (rolesKind) Decode(raw json.RawMessage) (Record, error) {
	return decodeInto[Role](raw, "role")
}

func (rolesKind) CreateForm() (CreateForm, bool) { return roleCreateForm, true }

// Truncate shortens s to n runes, appending "..." when anything was cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
