package memberscsv

import (
	"encoding/csv"
	"io"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/jdav-kompass/kompass/internal/model"
	"github.com/pkg/errors"
)

const bom = "\ufeff"

// rowFields holds the raw flat cells of one data row. The csv tag doubles
// as the field name reported in validation errors.
type rowFields struct {
	Prename          string `csv:"prename" validate:"required"`
	Lastname         string `csv:"lastname" validate:"required"`
	Email            string `csv:"email" validate:"omitempty,email"`
	AlternativeEmail string `csv:"alternative_email" validate:"omitempty,email"`
	Phone            string `csv:"phone"`
	Street           string `csv:"street"`
	PostalCode       string `csv:"postal_code"`
	Town             string `csv:"town"`
	BirthDate        string `csv:"birth_date" validate:"required,datetime=2006-01-02"`
	Gender           string `csv:"gender" validate:"required"`
	Groups           string `csv:"groups"`
	SwimmingBadge    string `csv:"swimming_badge" validate:"required,oneof=true false"`
	ClimbingBadge    string `csv:"climbing_badge"`
	DAVBadgeNo       string `csv:"dav_badge_no"`
	Comments         string `csv:"comments"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("csv")
	})
	return v
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "invalid email address"
	case "datetime":
		return "invalid date, expected YYYY-MM-DD"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed on " + fe.Tag()
	}
}

// contactColumns holds the record indexes of one emergency contact group;
// -1 marks a sub-column absent from the header.
type contactColumns struct {
	name, relation, phone int
}

// Reader decodes members from CSV one row at a time.
type Reader struct {
	r *csv.Reader

	index    map[string]int
	contacts []contactColumns
	row      int
}

// NewReader reads and checks the header row. Header problems are reported
// as a *ValidationError with Row 0.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ValidationError{Row: 0, Message: "missing header row"}
	}
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, &ValidationError{Row: 0, Message: pe.Err.Error()}
		}
		return nil, err
	}

	rd := &Reader{
		r:     cr,
		index: make(map[string]int, len(flatColumns)),
	}
	if err = rd.parseHeader(header); err != nil {
		return nil, err
	}
	return rd, nil
}

func (r *Reader) parseHeader(header []string) error {
	flat := make(map[string]bool, len(flatColumns))
	for _, c := range flatColumns {
		flat[c] = true
	}

	seen := make(map[string]bool, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, bom)
		}
		if !utf8.ValidString(name) {
			return ErrInvalidEncoding
		}
		if seen[name] {
			return &ValidationError{Row: 0, Field: name, Message: "duplicate column"}
		}
		seen[name] = true

		if flat[name] {
			r.index[name] = i
			continue
		}

		n, field, ok := parseContactColumn(name)
		if !ok {
			return &ValidationError{Row: 0, Field: name, Message: "unknown column"}
		}
		for len(r.contacts) < n {
			r.contacts = append(r.contacts, contactColumns{name: -1, relation: -1, phone: -1})
		}
		switch field {
		case contactName:
			r.contacts[n-1].name = i
		case contactRelation:
			r.contacts[n-1].relation = i
		case contactPhone:
			r.contacts[n-1].phone = i
		}
	}

	for _, c := range flatColumns {
		if c == ColID {
			continue
		}
		if _, ok := r.index[c]; !ok {
			return &ValidationError{Row: 0, Field: c, Message: "missing column"}
		}
	}
	return nil
}

// ContactGroups reports the emergency contact width declared by the header.
func (r *Reader) ContactGroups() int {
	return len(r.contacts)
}

// Row reports the 1-based number of the data row last read.
func (r *Reader) Row() int {
	return r.row
}

// Read returns the member of the next data row, or io.EOF once the input is
// exhausted. A malformed row yields a *ValidationError; reading may continue
// with the following row.
func (r *Reader) Read() (*model.Member, error) {
	record, err := r.r.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	r.row++
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, &ValidationError{Row: r.row, Message: pe.Err.Error()}
		}
		return nil, err
	}
	for _, cell := range record {
		if !utf8.ValidString(cell) {
			return nil, errors.Wrapf(ErrInvalidEncoding, "row %d", r.row)
		}
	}
	return r.decode(record)
}

func (r *Reader) cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

func (r *Reader) decode(record []string) (*model.Member, error) {
	col := func(name string) string {
		return r.cell(record, r.index[name])
	}

	f := rowFields{
		Prename:          col(ColPrename),
		Lastname:         col(ColLastname),
		Email:            col(ColEmail),
		AlternativeEmail: col(ColAlternativeEmail),
		Phone:            col(ColPhone),
		Street:           col(ColStreet),
		PostalCode:       col(ColPostalCode),
		Town:             col(ColTown),
		BirthDate:        col(ColBirthDate),
		Gender:           col(ColGender),
		Groups:           col(ColGroups),
		SwimmingBadge:    col(ColSwimmingBadge),
		ClimbingBadge:    col(ColClimbingBadge),
		DAVBadgeNo:       col(ColDAVBadgeNo),
		Comments:         col(ColComments),
	}

	if err := validate.Struct(&f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, &ValidationError{Row: r.row, Field: verrs[0].Field(), Message: validationMessage(verrs[0])}
		}
		return nil, err
	}

	birthDate, err := time.Parse(model.DateLayout, f.BirthDate)
	if err != nil {
		return nil, &ValidationError{Row: r.row, Field: ColBirthDate, Message: "invalid date, expected YYYY-MM-DD"}
	}

	gender, err := model.ParseGender(f.Gender)
	if err != nil {
		return nil, &ValidationError{Row: r.row, Field: ColGender, Message: "must be one of: male female diverse"}
	}

	var groups []string
	if f.Groups != "" {
		groups = strings.Split(f.Groups, GroupSeparator)
		seen := make(map[string]struct{}, len(groups))
		for _, g := range groups {
			if strings.TrimSpace(g) == "" {
				return nil, &ValidationError{Row: r.row, Field: ColGroups, Message: "empty group name"}
			}
			if _, ok := seen[g]; ok {
				return nil, &ValidationError{Row: r.row, Field: ColGroups, Message: "duplicate group name " + g}
			}
			seen[g] = struct{}{}
		}
	}

	m := &model.Member{
		Prename:          f.Prename,
		Lastname:         f.Lastname,
		Email:            f.Email,
		AlternativeEmail: f.AlternativeEmail,
		Phone:            f.Phone,
		Street:           f.Street,
		PostalCode:       f.PostalCode,
		Town:             f.Town,
		BirthDate:        birthDate,
		Gender:           gender,
		Groups:           groups,
		SwimmingBadge:    f.SwimmingBadge == "true",
		ClimbingBadge:    f.ClimbingBadge,
		DAVBadgeNo:       f.DAVBadgeNo,
		Comments:         f.Comments,
	}

	for n, cc := range r.contacts {
		c := &model.EmergencyContact{
			Name:     r.cell(record, cc.name),
			Relation: r.cell(record, cc.relation),
			Phone:    r.cell(record, cc.phone),
		}
		if c.IsBlank() {
			continue
		}
		if c.Name == "" {
			return nil, &ValidationError{
				Row:     r.row,
				Field:   ContactColumn(n+1, contactName),
				Message: "this field is required when the contact is given",
			}
		}
		c.Position = len(m.EmergencyContacts)
		m.EmergencyContacts = append(m.EmergencyContacts, c)
	}

	return m, nil
}

// Decode reads all members from r and aborts on the first error. It also
// returns the emergency contact width of the header.
func Decode(r io.Reader) ([]*model.Member, int, error) {
	rd, err := NewReader(r)
	if err != nil {
		return nil, 0, err
	}

	members := make([]*model.Member, 0)
	for {
		m, err := rd.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return members, rd.ContactGroups(), err
		}
		members = append(members, m)
	}
	return members, rd.ContactGroups(), nil
}
