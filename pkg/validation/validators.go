package validation

import (
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the wire format for calendar dates (birth dates).
const DateLayout = "2006-01-02"

var (
	// Letters, spaces and the punctuation found in personal names: . ' -
	nameRegex = regexp.MustCompile(`^[\p{L} .'-]+$`)

	// E164-like phone: optional +, 7-15 digits; spaces and dashes are stripped first
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

	// oldest accepted birth date
	minBirthDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
)

var (
	instance *validator.Validate
	once     sync.Once
)

// Validator returns the shared validator with the custom tags registered.
func Validator() *validator.Validate {
	once.Do(func() {
		instance = validator.New()
		RegisterValidators(instance)
	})
	return instance
}

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("valid_name", ValidName)
	_ = v.RegisterValidation("valid_phone", ValidPhone)
	_ = v.RegisterValidation("no_emoji", NoEmoji)
	_ = v.RegisterValidation("past_date", PastDate)
}

// ValidName rejects digits and symbols in person names
func ValidName(fl validator.FieldLevel) bool {
	val := strings.TrimSpace(fl.Field().String())
	if val == "" {
		return true // Optional, use required if needed
	}
	return nameRegex.MatchString(val)
}

// NormalizePhone strips the separators people type into phone fields.
func NormalizePhone(s string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(s))
}

// ValidPhone validates a phone number structure
func ValidPhone(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	return phoneRegex.MatchString(NormalizePhone(val))
}

// NoEmoji validates that a string does not contain emoji characters
func NoEmoji(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if r > 0x1F000 {
			return false // Supplementary characters (mostly emoji/symbols)
		}
		if unicode.In(r, unicode.So, unicode.Sk) {
			return false
		}
	}
	return true
}

// PastDate accepts a YYYY-MM-DD date that lies before today and after 1900.
func PastDate(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	d, err := time.Parse(DateLayout, val)
	if err != nil {
		return false
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	return d.Before(today) && !d.Before(minBirthDate)
}
