package journal

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Submission is the raw payload of a create or edit request, before
// validation.
type Submission struct {
	ID      string `json:"id" validate:"omitempty,max=64"`
	Date    string `json:"date" validate:"required"`
	Type    string `json:"type" validate:"required,oneof=work learning interesting-thing"`
	Privacy string `json:"privacy" validate:"required,oneof=public private everyone owner"`
	Text    string `json:"text" validate:"required,max=255"`
	Link    string `json:"link" validate:"omitempty,url"`
}

// SubmissionError lists the fields of a Submission that failed validation,
// keyed by JSON field name.
type SubmissionError struct {
	Fields map[string]string
}

func (e *SubmissionError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + e.Fields[name]
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldMessages maps field and failed tag to the message shown to the user.
var fieldMessages = map[string]map[string]string{
	"id":      {"max": "Id is too long"},
	"date":    {"required": "Date is required"},
	"type":    {"required": "Type is required", "oneof": "Type is invalid"},
	"privacy": {"required": "Privacy setting is required", "oneof": "Privacy setting is invalid"},
	"text":    {"required": "Entry is required", "max": "Entry is too long"},
	"link":    {"url": "Link is invalid"},
}

// DecodeSubmission trims and validates a submission and returns the entry
// it describes, with the date normalised to DateFormat and privacy to its
// canonical label. Validation failures are returned as *SubmissionError.
// An empty ID is left empty for the caller to fill.
func DecodeSubmission(s Submission) (Entry, error) {
	blankText := s.Text != "" && strings.TrimSpace(s.Text) == ""
	s = Submission{
		ID:      strings.TrimSpace(s.ID),
		Date:    strings.TrimSpace(s.Date),
		Type:    strings.TrimSpace(s.Type),
		Privacy: strings.ToLower(strings.TrimSpace(s.Privacy)),
		Text:    strings.TrimSpace(s.Text),
		Link:    strings.TrimSpace(s.Link),
	}

	fields := make(map[string]string)
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Entry{}, err
		}
		for _, fe := range verrs {
			msg, ok := fieldMessages[fe.Field()][fe.Tag()]
			if !ok {
				msg = "Value is invalid"
			}
			fields[fe.Field()] = msg
		}
	}

	if blankText {
		fields["text"] = "Entry is too short"
	}

	var day string
	if _, failed := fields["date"]; !failed {
		t, err := ParseDate(s.Date)
		if err != nil {
			fields["date"] = "Date is invalid"
		} else {
			day = t.Format(DateFormat)
		}
	}

	if len(fields) > 0 {
		return Entry{}, &SubmissionError{Fields: fields}
	}

	privacy, _ := ParsePrivacy(s.Privacy)
	return Entry{
		ID:      s.ID,
		Date:    day,
		Type:    Type(s.Type),
		Privacy: privacy,
		Text:    s.Text,
		Link:    s.Link,
	}, nil
}
