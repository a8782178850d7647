package models

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	dErrors "govportal/pkg/domain-errors"
)

const (
	maxShortText = "200"
	maxLongText  = "5000"
	dateLayout   = "2006-01-02"
)

// Column is one category-specific database column and its value. Value is
// nil for absent optional fields so they persist as explicit nulls.
type Column struct {
	Name  string
	Value any
}

// Fields is the validated, category-specific portion of a record.
type Fields interface {
	// Validate reports missing required fields.
	Validate() error
	// Columns lists every category column in table order.
	Columns() []Column
	// FolderHint is the location used to derive the upload subfolder.
	FolderHint() string
}

// Decode builds the typed fields of category from payload. Missing required
// fields take precedence over malformed values in the returned error. A
// malformed text, date or enum value still counts as present.
// now bounds date fields that cannot lie in the future.
func Decode(category Category, payload Payload, now time.Time) (Fields, error) {
	d := &decoder{p: payload, now: now}
	var f Fields
	switch category {
	case CategoryReport:
		f = decodeReport(d)
	case CategoryBirthRegistration:
		f = decodeBirthRegistration(d)
	case CategoryLandService:
		f = decodeLandService(d)
	case CategoryDocumentVerification:
		f = decodeDocumentVerification(d)
	case CategorySocialProgram:
		f = decodeSocialProgram(d)
	default:
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown submission category %q", category)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if len(d.invalid) > 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "Invalid field values").
			WithDetails(strings.Join(d.invalid, ", "))
	}
	return f, nil
}

type decoder struct {
	p       Payload
	now     time.Time
	invalid []string
}

func (d *decoder) reject(key, reason string) {
	d.invalid = append(d.invalid, key+" "+reason)
}

func (d *decoder) text(key, maxLen string) *string {
	s, ok := d.p.String(key)
	if !ok {
		return nil
	}
	if !govalidator.StringLength(s, "1", maxLen) {
		d.reject(key, "exceeds "+maxLen+" characters")
	}
	return &s
}

func (d *decoder) email(key string) *string {
	s, ok := d.p.String(key)
	if !ok {
		return nil
	}
	if !govalidator.IsEmail(s) {
		d.reject(key, "is not a valid email address")
		return nil
	}
	return &s
}

func (d *decoder) phone(key string) *string {
	s, ok := d.p.String(key)
	if !ok {
		return nil
	}
	digits := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimPrefix(s, "+"))
	if !govalidator.IsNumeric(digits) || !govalidator.StringLength(digits, "7", "15") {
		d.reject(key, "is not a valid phone number")
		return nil
	}
	return &s
}

func (d *decoder) coordinate(key string, valid func(string) bool) *float64 {
	s, ok := d.p.String(key)
	if !ok {
		return nil
	}
	if !govalidator.IsFloat(s) || !valid(s) {
		d.reject(key, "is not a valid coordinate")
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		d.reject(key, "is not a valid coordinate")
		return nil
	}
	return &f
}

func (d *decoder) positiveInt(key string) *int {
	n, err := d.p.Int(key)
	if err != nil {
		d.reject(key, "is not an integer")
		return nil
	}
	if n != nil && *n < 1 {
		d.reject(key, "must be at least 1")
		return nil
	}
	return n
}

func (d *decoder) date(key string, notAfterNow bool) *string {
	s, ok := d.p.String(key)
	if !ok {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		d.reject(key, "must be a date in YYYY-MM-DD format")
	} else if notAfterNow && t.After(d.now) {
		d.reject(key, "cannot be in the future")
	}
	return &s
}

func (d *decoder) oneOf(key string, allowed ...string) *string {
	s, ok := d.p.String(key)
	if !ok {
		return nil
	}
	s = strings.ToLower(s)
	if !govalidator.IsIn(s, allowed...) {
		d.reject(key, "must be one of "+strings.Join(allowed, ", "))
	}
	return &s
}

// requireFields returns a validation error naming every nil entry of fields.
func requireFields(fields map[string]bool) error {
	var missing []string
	for name, present := range fields {
		if !present {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return dErrors.New(dErrors.CodeValidation, "Missing required fields").
		WithDetails(strings.Join(missing, ", "))
}

func val[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
