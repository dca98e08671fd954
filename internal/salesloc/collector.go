package salesloc

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

// Form field names shared by the page, exports and API.
const (
	FieldDateField = "date_field"
	FieldStartDate = "start_date"
	FieldEndDate   = "end_date"
	FieldProducts  = "products"
	FieldLocations = "locations"
)

// FormInput carries the raw filter values as submitted.
type FormInput struct {
	DateField string   `validate:"required"`
	StartDate string   `validate:"required,datetime=2006-01-02"`
	EndDate   string   `validate:"required,datetime=2006-01-02"`
	Products  []string `validate:"dive,required"`
	Locations []string `validate:"dive,required"`
}

var validate = validator.New()

// FormFromValues extracts filter input from query or form values. Empty
// entries in the multi-selects are dropped; selected values are kept verbatim.
func FormFromValues(values url.Values) FormInput {
	return FormInput{
		DateField: strings.TrimSpace(values.Get(FieldDateField)),
		StartDate: strings.TrimSpace(values.Get(FieldStartDate)),
		EndDate:   strings.TrimSpace(values.Get(FieldEndDate)),
		Products:  nonEmpty(values[FieldProducts]),
		Locations: nonEmpty(values[FieldLocations]),
	}
}

// Values renders the input back to url.Values, e.g. for export links.
func (in FormInput) Values() url.Values {
	v := url.Values{}
	v.Set(FieldDateField, in.DateField)
	v.Set(FieldStartDate, in.StartDate)
	v.Set(FieldEndDate, in.EndDate)
	for _, p := range in.Products {
		v.Add(FieldProducts, p)
	}
	for _, l := range in.Locations {
		v.Add(FieldLocations, l)
	}
	return v
}

// Collect turns raw input into FilterCriteria. It never touches the database.
func Collect(in FormInput) (FilterCriteria, error) {
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return FilterCriteria{}, invalid(formFieldName(verrs[0].StructField()), verrs[0].Tag())
		}
		return FilterCriteria{}, invalid("form", err.Error())
	}

	field := DateField(in.DateField)
	if _, ok := field.Column(); !ok {
		return FilterCriteria{}, invalid(FieldDateField, "unknown date field "+in.DateField)
	}

	start, err := time.Parse(dateLayout, in.StartDate)
	if err != nil {
		return FilterCriteria{}, invalid(FieldStartDate, "not a date")
	}
	end, err := time.Parse(dateLayout, in.EndDate)
	if err != nil {
		return FilterCriteria{}, invalid(FieldEndDate, "not a date")
	}
	if start.After(end) {
		return FilterCriteria{}, invalid(FieldEndDate, "end date is before start date")
	}

	products := make([]ProductRef, 0, len(in.Products))
	seenProducts := make(map[ProductRef]struct{}, len(in.Products))
	for _, value := range in.Products {
		ref, ok := ParseProductValue(value)
		if !ok {
			return FilterCriteria{}, invalid(FieldProducts, "expected \"code - name\", got "+value)
		}
		if _, dup := seenProducts[ref]; dup {
			continue
		}
		seenProducts[ref] = struct{}{}
		products = append(products, ref)
	}

	return FilterCriteria{
		DateField: field,
		Range:     DateRange{Start: start, End: end},
		Products:  products,
		Locations: dedupe(in.Locations),
	}, nil
}

func formFieldName(structField string) string {
	structField, _, _ = strings.Cut(structField, "[")
	switch structField {
	case "DateField":
		return FieldDateField
	case "StartDate":
		return FieldStartDate
	case "EndDate":
		return FieldEndDate
	case "Products":
		return FieldProducts
	case "Locations":
		return FieldLocations
	}
	return strings.ToLower(structField)
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
