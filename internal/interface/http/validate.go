package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/alem-hub/mentorship-hub/internal/domain/collaboration"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report the json field name rather than the Go field name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("cardid", func(fl validator.FieldLevel) bool {
		return collaboration.IsCardIDFormat(fl.Field().String())
	})
	return v
}

// errBadBody marks a request body that could not be decoded.
var errBadBody = errors.New("malformed JSON body")

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// Unknown fields are ignored so clients may send extra card metadata.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, limit int64, dst interface{}) error {
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadBody)
		}
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return validate.Struct(dst)
}

// describeValidation turns validator errors into one line per field.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "uuid":
			parts = append(parts, fe.Field()+" must be a UUID")
		case "cardid":
			parts = append(parts, fe.Field()+" must be two UUIDs joined by '_'")
		default:
			parts = append(parts, fmt.Sprintf("%s failed rule '%s%s'", fe.Field(), fe.Tag(), paramSuffix(fe.Param())))
		}
	}
	return strings.Join(parts, "; ")
}

func paramSuffix(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}
