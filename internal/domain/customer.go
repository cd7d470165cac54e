package domain

import "strings"

type Customer struct {
	ID          int64  `json:"id"`
	CustomerID  string `json:"customerId"`
	CompanyName string `json:"companyName"`
	Address     string `json:"address"`
	ContactNo   string `json:"contactNo"`
	UserID      int64  `json:"userId"`
	Username    string `json:"username"`
}

// Complete indica si el registro tiene los cinco campos que se muestran.
func (c Customer) Complete() bool {
	return c.CustomerID != "" && c.CompanyName != "" && c.Address != "" &&
		c.ContactNo != "" && c.Username != ""
}

type ListResult struct {
	Customers []Customer `json:"customers"`
	Total     int        `json:"total"`
}

// Draft es el formulario de alta/edición antes de enviarse.
type Draft struct {
	CustomerID  string `json:"customerId"`
	CompanyName string `json:"companyName"`
	Address     string `json:"address"`
	ContactNo   string `json:"contactNo"`
}

// Field identifica un campo editable del formulario.
type Field string

const (
	FieldCustomerID  Field = "customerId"
	FieldCompanyName Field = "companyName"
	FieldAddress     Field = "address"
	FieldContactNo   Field = "contactNo"
)

var requiredFields = []Field{FieldCustomerID, FieldCompanyName, FieldAddress, FieldContactNo}

func DraftFrom(c Customer) Draft {
	return Draft{
		CustomerID:  c.CustomerID,
		CompanyName: c.CompanyName,
		Address:     c.Address,
		ContactNo:   c.ContactNo,
	}
}

func (d Draft) Get(f Field) string {
	switch f {
	case FieldCustomerID:
		return d.CustomerID
	case FieldCompanyName:
		return d.CompanyName
	case FieldAddress:
		return d.Address
	case FieldContactNo:
		return d.ContactNo
	}
	return ""
}

// Set devuelve false si el campo no existe.
func (d *Draft) Set(f Field, v string) bool {
	switch f {
	case FieldCustomerID:
		d.CustomerID = v
	case FieldCompanyName:
		d.CompanyName = v
	case FieldAddress:
		d.Address = v
	case FieldContactNo:
		d.ContactNo = v
	default:
		return false
	}
	return true
}

func (d Draft) Empty() bool { return d == Draft{} }

// Validate es solo orientativa: el servidor sigue siendo quien decide.
func (d Draft) Validate() error {
	for _, f := range requiredFields {
		if strings.TrimSpace(d.Get(f)) == "" {
			return &ValidationError{Field: f}
		}
	}
	return nil
}

// Fields arma un update con los cuatro campos del formulario.
func (d Draft) Fields() UpdateFields {
	cid, name, addr, contact := d.CustomerID, d.CompanyName, d.Address, d.ContactNo
	return UpdateFields{
		CustomerID:  &cid,
		CompanyName: &name,
		Address:     &addr,
		ContactNo:   &contact,
	}
}

type NewCustomer struct {
	CustomerID  string `json:"customerId"`
	CompanyName string `json:"companyName"`
	Address     string `json:"address"`
	ContactNo   string `json:"contactNo"`
	UserID      int64  `json:"userId"`
}

func (d Draft) ForUser(userID int64) NewCustomer {
	return NewCustomer{
		CustomerID:  d.CustomerID,
		CompanyName: d.CompanyName,
		Address:     d.Address,
		ContactNo:   d.ContactNo,
		UserID:      userID,
	}
}

// UpdateFields: solo se serializan los campos seteados.
type UpdateFields struct {
	CustomerID  *string `json:"customerId,omitempty"`
	CompanyName *string `json:"companyName,omitempty"`
	Address     *string `json:"address,omitempty"`
	ContactNo   *string `json:"contactNo,omitempty"`
}

func (u UpdateFields) Empty() bool {
	return u.CustomerID == nil && u.CompanyName == nil && u.Address == nil && u.ContactNo == nil
}

// Validate rechaza campos presentes pero vacíos.
func (u UpdateFields) Validate() error {
	check := []struct {
		f Field
		v *string
	}{
		{FieldCustomerID, u.CustomerID},
		{FieldCompanyName, u.CompanyName},
		{FieldAddress, u.Address},
		{FieldContactNo, u.ContactNo},
	}
	for _, c := range check {
		if c.v != nil && strings.TrimSpace(*c.v) == "" {
			return &ValidationError{Field: c.f}
		}
	}
	return nil
}

// Apply devuelve una copia de c con los campos seteados aplicados.
func (u UpdateFields) Apply(c Customer) Customer {
	if u.CustomerID != nil {
		c.CustomerID = *u.CustomerID
	}
	if u.CompanyName != nil {
		c.CompanyName = *u.CompanyName
	}
	if u.Address != nil {
		c.Address = *u.Address
	}
	if u.ContactNo != nil {
		c.ContactNo = *u.ContactNo
	}
	return c
}
