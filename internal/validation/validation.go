package validation

import (
	"encoding/json"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// btih info-hash: 40 hex chars (SHA-1) or 32 base32 chars, terminated by
// another query parameter or the end of the URI
var infoHashRe = regexp.MustCompile(`(?i)xt=urn:btih:([0-9a-f]{40}|[a-z2-7]{32})(&|$)`)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// error maps key on the json tag, falling back to the Go field name
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// magnet: a BitTorrent magnet link carrying a well-formed info-hash
	_ = validate.RegisterValidation("magnet", func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		return strings.HasPrefix(v, "magnet:?") && infoHashRe.MatchString(v)
	})
}

func ValidateStruct(s any) error {
	return validate.Struct(s)
}

// ErrorsToJson flattens validator errors into a {"field": "failed tag"} JSON
// object, the shape every 400 response body uses.
func ErrorsToJson(validationErrs error) (string, error) {
	errsMap := make(map[string]string)
	for _, fieldErr := range validationErrs.(validator.ValidationErrors) {
		errsMap[fieldErr.Field()] = fieldErr.Tag()
	}

	errsJson, err := json.Marshal(errsMap)
	if err != nil {
		return "", err
	}
	return string(errsJson), nil
}
