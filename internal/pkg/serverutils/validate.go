package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"pdf-annotator-be/pkg/annotation"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest runs struct tag validation and reports the offending fields
// as a validation error.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return annotation.Validation(annotation.CodeInvalidBody, err.Error())
	}

	fields := make([]string, 0, len(verrs))
	code := annotation.CodeInvalidBody
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", jsonName(fe), fe.Tag()))
		if fe.Tag() == "required" {
			code = annotation.CodeMissingField
		}
	}
	return annotation.Validation(code, "Missing or invalid data: "+strings.Join(fields, ", "))
}

// jsonName converts the Go field name into the snake_case key clients send.
func jsonName(fe validator.FieldError) string {
	switch fe.Field() {
	case "PageNum":
		return "page_num"
	default:
		return strings.ToLower(fe.Field())
	}
}
