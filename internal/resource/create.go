// ABOUTME: Create forms for each resource kind and their presence-only validation.
// ABOUTME: Integer inputs are parsed leniently with safe defaults before validation.

package resource

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError is a create form rejected before any request is sent.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// CreateForm is a kind's create form.
type CreateForm struct {
	Fields []Field
	build  func(Values) any
	// message is shown when validation fails.
	message string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Build parses submitted values into the create payload and validates it.
// A missing required value returns a *ValidationError.
func (f CreateForm) Build(values Values) (any, error) {
	if f.build == nil {
		return nil, errors.New("resource has no create form")
	}
	payload := f.build(values)
	if err := validate.Struct(payload); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return nil, &ValidationError{Message: f.message}
		}
		return nil, err
	}
	return payload, nil
}

// ProductCreate is the POST /products body.
type ProductCreate struct {
	Name         string `json:"name" validate:"required"`
	Stock        int    `json:"stock"`
	MOQ          int    `json:"moq"`
	QuantityType string `json:"quantity_type"`
}

// OrderCreate is the POST /orders body.
type OrderCreate struct {
	UserID            int    `json:"user_id" validate:"required"`
	ProductID         int    `json:"product_id" validate:"required"`
	Status            string `json:"status"`
	EstimatedDelivery string `json:"estimated_delivery,omitempty"`
}

// UserCreate is the POST /users body.
type UserCreate struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	RoleName string `json:"role_name" validate:"required"`
}

// FAQCreate is the POST /faq body.
type FAQCreate struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

// RoleCreate is the POST /roles body.
type RoleCreate struct {
	RoleName string `json:"role_name" validate:"required"`
}

var (
	productCreateForm = CreateForm{
		Fields: []Field{
			{ID: "name", Label: "Product Name", Type: FieldText, Required: true},
			{ID: "stock", Label: "Initial Stock", Type: FieldNumber},
			{ID: "moq", Label: "Minimum Order Quantity", Type: FieldNumber},
			{ID: "quantity_type", Label: "Quantity Type", Type: FieldSelect, Options: quantityTypes, Value: "pcs"},
		},
		message: "Product name is required",
		build: func(v Values) any {
			return &ProductCreate{
				Name:         strings.TrimSpace(v.Get("name")),
				Stock:        ParseInt(v.Get("stock"), 0),
				MOQ:          ParseInt(v.Get("moq"), 1),
				QuantityType: orDefault(v.Get("quantity_type"), "pcs"),
			}
		},
	}

	orderCreateForm = CreateForm{
		Fields: []Field{
			{ID: "user_id", Label: "User ID", Type: FieldNumber, Required: true},
			{ID: "product_id", Label: "Product ID", Type: FieldNumber, Required: true},
			{ID: "status", Label: "Status", Type: FieldSelect, Options: orderStatuses, Value: "pending"},
			{ID: "estimated_delivery", Label: "Estimated Delivery", Type: FieldDate},
		},
		message: "User ID and Product ID are required",
		build: func(v Values) any {
			return &OrderCreate{
				UserID:            ParseInt(v.Get("user_id"), 0),
				ProductID:         ParseInt(v.Get("product_id"), 0),
				Status:            orDefault(v.Get("status"), "pending"),
				EstimatedDelivery: v.Get("estimated_delivery"),
			}
		},
	}

	userCreateForm = CreateForm{
		Fields: []Field{
			{ID: "username", Label: "Username", Type: FieldText, Required: true},
			{ID: "password", Label: "Password", Type: FieldPassword, Required: true},
			{ID: "role_name", Label: "Role", Type: FieldSelect, Required: true, Options: userRoles},
		},
		message: "All fields are required",
		build: func(v Values) any {
			return &UserCreate{
				Username: strings.TrimSpace(v.Get("username")),
				Password: v.Get("password"),
				RoleName: v.Get("role_name"),
			}
		},
	}

	faqCreateForm = CreateForm{
		Fields: []Field{
			{ID: "question", Label: "Question", Type: FieldText, Required: true},
			{ID: "answer", Label: "Answer", Type: FieldTextarea, Required: true},
		},
		message: "Both question and answer are required",
		build: func(v Values) any {
			return &FAQCreate{
				Question: strings.TrimSpace(v.Get("question")),
				Answer:   strings.TrimSpace(v.Get("answer")),
			}
		},
	}

	roleCreateForm = CreateForm{
		Fields: []Field{
			{ID: "role_name", Label: "Role Name", Type: FieldText, Required: true},
		},
		message: "Role name is required",
		build: func(v Values) any {
			return &RoleCreate{RoleName: strings.TrimSpace(v.Get("role_name"))}
		},
	}
)

// ParseInt reads a leading decimal integer from s, ignoring surrounding
// space and any trailing garbage ("12kg" is 12). Input with no leading
// digits, that parses to zero, or that overflows 32 bits yields def.
func ParseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.ParseInt(s[:end], 10, 32)
	if err != nil || n == 0 {
		return def
	}
	return int(n)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
