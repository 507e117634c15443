package ndfc

import (
	"fmt"
	"net"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Custom validation tags
const (
	TagFabricName   = "fabricname"   // starts with a letter, then letters, digits, _ or -, 64 max
	TagBgpAsn       = "bgpasn"       // 1-4294967295 or asdot X.Y
	TagSerialNumber = "serialnumber" // alphanumeric, 3-32 chars
	TagPolicyID     = "policyid"     // POLICY-<digits>
	TagObjectName   = "objname"      // VRF and network names
	TagCiscoMAC     = "ciscomac"     // HHHH.HHHH.HHHH
	TagSwitchRole   = "switchrole"   // one of switchRoles
	TagGatewayV4    = "gatewayv4"    // host address with prefix length, 10.1.1.1/24
)

var (
	fabricNameRegex   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{0,63}$`)
	serialNumberRegex = regexp.MustCompile(`^[A-Za-z0-9]{3,32}$`)
	policyIDRegex     = regexp.MustCompile(`^POLICY-[0-9]+$`)
	objectNameRegex   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:-]*$`)
	ciscoMACRegex     = regexp.MustCompile(`^[0-9A-Fa-f]{4}\.[0-9A-Fa-f]{4}\.[0-9A-Fa-f]{4}$`)
)

// ErrInvalid is matched by every *ValidationError.
var ErrInvalid = errors.New("invalid fields")

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalid, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their YAML key.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation(TagFabricName, matches(fabricNameRegex))
	_ = v.RegisterValidation(TagSerialNumber, matches(serialNumberRegex))
	_ = v.RegisterValidation(TagPolicyID, matches(policyIDRegex))
	_ = v.RegisterValidation(TagObjectName, matches(objectNameRegex))
	_ = v.RegisterValidation(TagCiscoMAC, matches(ciscoMACRegex))
	_ = v.RegisterValidation(TagBgpAsn, validateBgpAsn)
	_ = v.RegisterValidation(TagSwitchRole, validateSwitchRole)
	_ = v.RegisterValidation(TagGatewayV4, validateGatewayV4)
	return v
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true // Let 'required' handle empty values
		}
		return re.MatchString(value)
	}
}

func validateBgpAsn(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return IsBgpAsn(value)
}

func validateSwitchRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	for _, role := range switchRoles {
		if value == role {
			return true
		}
	}
	return false
}

// validateGatewayV4 accepts any host in the prefix; cidrv4 only takes the
// network address.
func validateGatewayV4(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	ip, _, err := net.ParseCIDR(value)
	return err == nil && ip.To4() != nil
}

// IsBgpAsn reports whether s is a plain (1-4294967295) or asdot (X.Y) ASN.
func IsBgpAsn(s string) bool {
	if high, low, ok := strings.Cut(s, "."); ok {
		h, err := strconv.ParseUint(high, 10, 16)
		if err != nil || h == 0 || strings.HasPrefix(high, "+") {
			return false
		}
		_, err = strconv.ParseUint(low, 10, 16)
		return err == nil && !strings.HasPrefix(low, "+")
	}
	n, err := strconv.ParseUint(s, 10, 32)
	return err == nil && n > 0 && !strings.HasPrefix(s, "+")
}

// check validates s and flattens failures into a *ValidationError.
func check(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return errors.Wrap(ErrInvalid, err.Error())
	}
	problems := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		problems = append(problems, describe(fe))
	}
	return &ValidationError{Problems: problems}
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "required_unless", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at least %s entries or characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at most %s entries or characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value())
	case TagSwitchRole:
		return fmt.Sprintf("%s must be one of [%s], got %v", field, strings.Join(switchRoles, " "), fe.Value())
	default:
		return fmt.Sprintf("%s: %v is not a valid %s", field, fe.Value(), fe.Tag())
	}
}
