package services

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// CustomerKind tags the shape the backend used for a response's customer.
type CustomerKind int

const (
	CustomerAbsent CustomerKind = iota
	CustomerID
	CustomerPopulated
)

// CustomerRef is the customer-identifying field of a response, parsed once
// at the JSON boundary.
type CustomerRef struct {
	Kind   CustomerKind
	ID     string
	Fields map[string]any // set for CustomerPopulated
}

const maxCustomerNesting = 3

var (
	customerIDKeys     = []string{"_id", "id", "userId"}
	customerNameKeys   = []string{"name", "fullName", "displayName", "userName", "username"}
	customerEmailKeys  = []string{"email", "mail", "emailAddress", "contact"}
	customerPhoneKeys  = []string{"phone", "phoneNumber", "mobile", "tel"}
	customerNestedKeys = []string{"profile", "user"}
)

// ParseCustomerRef interprets a raw customer/user/userId value: null or
// missing, a bare ID (string or number), or a populated object.
func ParseCustomerRef(raw json.RawMessage) CustomerRef {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return CustomerRef{Kind: CustomerAbsent}
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		if s = strings.TrimSpace(s); s == "" {
			return CustomerRef{Kind: CustomerAbsent}
		}
		return CustomerRef{Kind: CustomerID, ID: s}
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err == nil {
		return CustomerRef{Kind: CustomerID, ID: n.String()}
	}
	var m map[string]any
	if err := json.Unmarshal(trimmed, &m); err == nil && m != nil {
		return CustomerRef{Kind: CustomerPopulated, ID: customerIDOf(m, 0), Fields: m}
	}
	return CustomerRef{Kind: CustomerAbsent}
}

// customerRefFor picks the first present of customer, user and userId and
// folds in the legacy customerName/customerEmail/customerPhone fields.
func customerRefFor(rec ResponseRecord) CustomerRef {
	ref := CustomerRef{Kind: CustomerAbsent}
	for _, raw := range []json.RawMessage{rec.Customer, rec.User, rec.UserID} {
		if r := ParseCustomerRef(raw); r.Kind != CustomerAbsent {
			ref = r
			break
		}
	}
	legacy := map[string]string{
		"name":  rawString(rec.CustomerName),
		"email": rawString(rec.CustomerEmail),
		"phone": rawString(rec.CustomerPhone),
	}
	if legacy["name"] == "" && legacy["email"] == "" && legacy["phone"] == "" {
		return ref
	}
	fields := map[string]any{}
	for k, v := range ref.Fields {
		fields[k] = v
	}
	if ref.Kind == CustomerID {
		fields["_id"] = ref.ID
	}
	for k, v := range legacy {
		if _, exists := fields[k]; !exists && v != "" {
			fields[k] = v
		}
	}
	return CustomerRef{Kind: CustomerPopulated, ID: ref.ID, Fields: fields}
}

// ExtractCustomerInfo derives a displayable customer from any ref. The
// name is never empty; email is "" when nothing usable is found.
func ExtractCustomerInfo(ref CustomerRef, labels Labels) CustomerInfo {
	switch ref.Kind {
	case CustomerID:
		return CustomerInfo{ID: ref.ID, Name: idLabel(labels.CustomerPrefix, ref.ID, 6)}
	case CustomerPopulated:
		name := customerNameOf(ref.Fields, 0)
		if name == "" {
			if ref.ID != "" {
				name = idLabel(labels.CustomerPrefix, ref.ID, 6)
			} else {
				name = labels.UnnamedCustomer
			}
		}
		return CustomerInfo{ID: ref.ID, Name: name, Email: customerContactOf(ref.Fields)}
	default:
		return CustomerInfo{Name: labels.NoCustomer}
	}
}

func customerIDOf(m map[string]any, depth int) string {
	for _, k := range customerIDKeys {
		if s := stringField(m, k); s != "" {
			return s
		}
		if f, ok := m[k].(float64); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	if depth >= maxCustomerNesting {
		return ""
	}
	for _, k := range customerNestedKeys {
		if sub, ok := m[k].(map[string]any); ok {
			if id := customerIDOf(sub, depth+1); id != "" {
				return id
			}
		}
	}
	return ""
}

func customerNameOf(m map[string]any, depth int) string {
	for _, k := range customerNameKeys {
		if s := stringField(m, k); s != "" {
			return s
		}
	}
	if full := strings.TrimSpace(stringField(m, "firstName") + " " + stringField(m, "lastName")); full != "" {
		return full
	}
	if depth >= maxCustomerNesting {
		return ""
	}
	for _, k := range customerNestedKeys {
		if sub, ok := m[k].(map[string]any); ok {
			if s := customerNameOf(sub, depth+1); s != "" {
				return s
			}
		}
	}
	return ""
}

func customerContactOf(m map[string]any) string {
	if e := customerEmailOf(m, 0); e != "" {
		return e
	}
	if p := customerPhoneOf(m, 0); p != "" {
		return "Tel: " + p
	}
	return ""
}

func customerEmailOf(m map[string]any, depth int) string {
	for _, k := range customerEmailKeys {
		if s := stringField(m, k); s != "" {
			return s
		}
	}
	if depth >= maxCustomerNesting {
		return ""
	}
	for _, k := range customerNestedKeys {
		if sub, ok := m[k].(map[string]any); ok {
			if s := customerEmailOf(sub, depth+1); s != "" {
				return s
			}
		}
	}
	return ""
}

func customerPhoneOf(m map[string]any, depth int) string {
	for _, k := range customerPhoneKeys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	if depth >= maxCustomerNesting {
		return ""
	}
	for _, k := range customerNestedKeys {
		if sub, ok := m[k].(map[string]any); ok {
			if s := customerPhoneOf(sub, depth+1); s != "" {
				return s
			}
		}
	}
	return ""
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

// idLabel renders prefix followed by the first n runes of id.
func idLabel(prefix, id string, n int) string {
	r := []rune(id)
	if len(r) > n {
		r = r[:n]
	}
	return prefix + string(r)
}
