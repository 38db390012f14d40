package attendance

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// ValidationError reports a malformed request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var identityKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("identity_key", func(fl validator.FieldLevel) bool {
		return identityKeyPattern.MatchString(fl.Field().String())
	})
	return v
}

// Validator returns the validator shared with the HTTP layer. It knows the
// identity_key tag.
func Validator() *validator.Validate {
	return validate
}

// ValidateIdentityKey checks length and character set of an identity key.
func ValidateIdentityKey(key string) error {
	if key == "" {
		return &ValidationError{Field: "identity_key", Reason: "must not be empty"}
	}
	rules := fmt.Sprintf("max=%d,identity_key", database.MaxIdentityKeyLength)
	if err := validate.Var(key, rules); err != nil {
		return &ValidationError{
			Field:  "identity_key",
			Reason: fmt.Sprintf("must be at most %d characters of letters, digits, '_', '.' or '-'", database.MaxIdentityKeyLength),
		}
	}
	return nil
}

// normalizeName trims the display name and checks it.
func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if len([]rune(name)) > database.MaxDisplayNameLength {
		return "", &ValidationError{Field: "name", Reason: fmt.Sprintf("must be at most %d characters", database.MaxDisplayNameLength)}
	}
	return name, nil
}

// Guard enforces one identity per key. The pre-check rejects obvious
// duplicates before anything is written; the store's conditional insert is
// authoritative when two registrations race.
type Guard struct {
	store database.IdentityWriter
}

func NewGuard(store database.IdentityWriter) *Guard {
	return &Guard{store: store}
}

// Precheck fails with database.ErrDuplicateKey when key is already enrolled.
func (g *Guard) Precheck(ctx context.Context, key string) error {
	if err := ValidateIdentityKey(key); err != nil {
		return err
	}
	existing, err := g.store.GetIdentity(ctx, key)
	if err != nil {
		return fmt.Errorf("duplicate check: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("identity %q: %w", key, database.ErrDuplicateKey)
	}
	return nil
}

// Insert stores id atomically.
func (g *Guard) Insert(ctx context.Context, id *database.Identity) error {
	if err := g.store.CreateIdentity(ctx, id); err != nil {
		if errors.Is(err, database.ErrDuplicateKey) {
			return err
		}
		return fmt.Errorf("create identity: %w", err)
	}
	return nil
}
