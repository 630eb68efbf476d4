// ABOUTME: Tests for kinds, field key derivation, update payloads, and create forms.
// ABOUTME: Table-driven where the kinds share behavior.

package resource

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldKey(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"updateQuantityType", "quantity_type"},
		{"updateName", "name"},
		{"updateMoq", "moq"},
		{"updateEstimatedDelivery", "estimated_delivery"},
		{"updateRoleName", "role_name"},
		{"updateStatus", "status"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, Field{ID: tt.id}.Key())
		})
	}
}

// Every update key must be one the API reads for that collection.
func TestUpdateKeysMatchAPI(t *testing.T) {
	want := map[string][]string{
		"products":   {"name", "stock", "moq", "quantity_type"},
		"orders":     {"status", "estimated_delivery"},
		"users":      {"username", "password", "role_name"},
		"faq":        {"question", "answer"},
		"unanswered": {"status"},
		"roles":      nil,
	}
	for _, k := range All() {
		var keys []string
		for _, f := range k.UpdateFields(nil) {
			keys = append(keys, f.Key())
		}
		assert.Equal(t, want[k.ID()], keys, k.ID())
	}
}

func TestBuildUpdate_OmitsEmptyFields(t *testing.T) {
	for _, k := range All() {
		fields := k.UpdateFields(nil)
		if len(fields) == 0 {
			continue
		}
		t.Run(k.ID(), func(t *testing.T) {
			empty := BuildUpdate(fields, url.Values{})
			assert.Empty(t, empty)

			values := url.Values{}
			values.Set(fields[0].ID, "v")
			got := BuildUpdate(fields, values)
			assert.Equal(t, map[string]string{fields[0].Key(): "v"}, got)
		})
	}
}

func TestUpdateFields_Defaults(t *testing.T) {
	rec, err := Products.Decode(json.RawMessage(`{"product_id":4,"product_name":"Widget","current_stock":12,"moq":2,"quantity_type":"kg"}`))
	require.NoError(t, err)

	fields := Products.UpdateFields(rec)
	require.Len(t, fields, 4)
	assert.Equal(t, "Widget", fields[0].Value)
	assert.Equal(t, "12", fields[1].Value)
	assert.Equal(t, "2", fields[2].Value)
	assert.Equal(t, "kg", fields[3].Value)
	assert.True(t, fields[3].Selected(Option{Value: "kg"}))
}

func TestUsersPasswordNeverPrefilled(t *testing.T) {
	rec, err := Users.Decode(json.RawMessage(`{"user_id":2,"username":"ann","role_name":"Order Admin"}`))
	require.NoError(t, err)

	for _, f := range Users.UpdateFields(rec) {
		if f.Type == FieldPassword {
			assert.Empty(t, f.Value)
		}
	}
	redisplayed := WithValues(Users.UpdateFields(rec), url.Values{"updatePassword": {"secret"}})
	assert.Empty(t, redisplayed[1].Value)
}

func TestRecordDisplay(t *testing.T) {
	order, err := Orders.Decode(json.RawMessage(`{"order_id":9,"username":"bob","product_name":"Widget","status":"Shipped","estimated_delivery":null}`))
	require.NoError(t, err)
	cells := order.Cells()
	assert.Equal(t, "shipped", cells[3].Badge)
	assert.Equal(t, "Not set", cells[4].Text)
	assert.Equal(t, "Order 9", order.DisplayName())

	long := strings.Repeat("é", 120)
	faq, err := FAQ.Decode(json.RawMessage(`{"faq_id":1,"question":"q","answer":"` + long + `"}`))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", 100)+"...", faq.Cells()[2].Text)
}

func TestDecode_Malformed(t *testing.T) {
	rec, err := Roles.Decode(json.RawMessage(`[1,2]`))
	assert.Error(t, err)
	assert.Nil(t, rec)
}

func TestLookup(t *testing.T) {
	k, ok := Lookup("unanswered")
	require.True(t, ok)
	assert.Equal(t, Unanswered, k)
	assert.False(t, Editable(Roles))
	assert.True(t, Editable(Unanswered))

	_, ok = Lookup("invoices")
	assert.False(t, ok)
}

func TestSectionsFor(t *testing.T) {
	ids := func(ks []Kind) []string {
		var out []string
		for _, k := range ks {
			out = append(out, k.ID())
		}
		return out
	}

	assert.Equal(t, []string{"orders"}, ids(SectionsFor("Order Admin")))
	assert.Equal(t, []string{"products", "orders"}, ids(SectionsFor("Product Admin")))
	assert.Equal(t, []string{"products", "orders", "users", "faq", "unanswered"}, ids(SectionsFor("Application Admin")))
	assert.Equal(t, []string{"products", "orders", "users", "faq", "unanswered", "roles"}, ids(SectionsFor("System Admin")))

	for _, role := range []string{"", "End User", "system admin", "Root"} {
		assert.Empty(t, SectionsFor(role), role)
	}
	assert.True(t, Allowed("Product Admin", Orders))
	assert.False(t, Allowed("Order Admin", Products))
}

func TestCreateProduct_NonNumericStockDefaultsToZero(t *testing.T) {
	form, ok := Products.CreateForm()
	require.True(t, ok)

	payload, err := form.Build(url.Values{"name": {"Widget"}, "stock": {"abc"}, "moq": {""}})
	require.NoError(t, err)

	p := payload.(*ProductCreate)
	assert.Equal(t, 0, p.Stock)
	assert.Equal(t, 1, p.MOQ)
	assert.Equal(t, "pcs", p.QuantityType)

	body, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Widget","stock":0,"moq":1,"quantity_type":"pcs"}`, string(body))
}

func TestCreateForms_Validation(t *testing.T) {
	tests := []struct {
		kind    Kind
		values  url.Values
		wantMsg string
	}{
		{Products, url.Values{"name": {"   "}}, "Product name is required"},
		{Orders, url.Values{"user_id": {"x"}, "product_id": {"3"}}, "User ID and Product ID are required"},
		{Users, url.Values{"username": {"ann"}, "password": {""}, "role_name": {"End User"}}, "All fields are required"},
		{FAQ, url.Values{"question": {"q"}}, "Both question and answer are required"},
		{Roles, url.Values{}, "Role name is required"},
	}
	for _, tt := range tests {
		t.Run(tt.kind.ID(), func(t *testing.T) {
			form, ok := tt.kind.CreateForm()
			require.True(t, ok)
			_, err := form.Build(tt.values)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantMsg, ve.Message)
		})
	}

	_, ok := Unanswered.CreateForm()
	assert.False(t, ok)
}

func TestCreateOrder_Payload(t *testing.T) {
	form, _ := Orders.CreateForm()
	payload, err := form.Build(url.Values{"user_id": {"7"}, "product_id": {"3x"}})
	require.NoError(t, err)
	assert.Equal(t, &OrderCreate{UserID: 7, ProductID: 3, Status: "pending"}, payload)
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 12, ParseInt(" 12kg", 0))
	assert.Equal(t, -4, ParseInt("-4", 0))
	assert.Equal(t, 1, ParseInt("0", 1))
	assert.Equal(t, 5, ParseInt("", 5))
	assert.Equal(t, 3, ParseInt("99999999999", 3))
	assert.Equal(t, 3, ParseInt("-", 3))
	assert.Equal(t, 2147483647, ParseInt("2147483647", 0))
}

func TestRenderMarkdown(t *testing.T) {
	out := string(RenderMarkdown("**bold** <script>alert(1)</script>"))
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.NotContains(t, out, "<script>")
}

func TestOwns(t *testing.T) {
	rec, err := Products.Decode([]byte(`{"product_id":1,"product_name":"Widget"}`))
	require.NoError(t, err)
	assert.True(t, Owns(Products, rec))
	assert.False(t, Owns(Orders, rec))
}
