package membership

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
)

// DefaultSessionKey is the session entry that holds the current user
const DefaultSessionKey = "Admin"

// Options is the default Config implementation
type Options struct {
	SessionKey        string `json:"session_key" yaml:"session_key"`
	JwtSecret         string `json:"jwt_secret" yaml:"jwt_secret"`
	SessionTimeout    int    `json:"session_timeout" yaml:"session_timeout"`
	AllowPasswordless bool   `json:"allow_passwordless" yaml:"allow_passwordless"`
}

var _ Config = Options{}

// DefaultOptions returns options with the session key set and
// passwordless accounts allowed.
func DefaultOptions() Options {
	return Options{
		SessionKey:        DefaultSessionKey,
		AllowPasswordless: true,
	}
}

func (o Options) GetSessionKey() string {
	if o.SessionKey == "" {
		return DefaultSessionKey
	}
	return o.SessionKey
}

func (o Options) GetJwtSecret() string {
	return o.JwtSecret
}

func (o Options) GetSessionTimeout() int {
	return o.SessionTimeout
}

func (o Options) GetAllowPasswordless() bool {
	return o.AllowPasswordless
}

// Validate will run validation rules
func (o Options) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.SessionKey, validation.Required),
		validation.Field(&o.JwtSecret, validation.Required, validation.By(validateJwtSecret)),
		validation.Field(&o.SessionTimeout, validation.Min(0)),
	)
}

// ValidateConfig checks any Config implementation
func ValidateConfig(cfg Config) error {
	if cfg == nil {
		return ErrInvalidConfig
	}

	opts := Options{
		SessionKey:        cfg.GetSessionKey(),
		JwtSecret:         cfg.GetJwtSecret(),
		SessionTimeout:    cfg.GetSessionTimeout(),
		AllowPasswordless: cfg.GetAllowPasswordless(),
	}

	if err := opts.Validate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, ErrInvalidConfig.Message).
			WithTextCode(TextCodeInvalidConfig).
			WithCode(errors.CodeBadRequest)
	}

	return nil
}

func validateJwtSecret(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	if _, _, err := SplitJwtSecret(s); err != nil {
		return err
	}

	return nil
}

// SplitJwtSecret splits an "algorithm:secret" pair. The secret may
// itself contain colons.
func SplitJwtSecret(pair string) (string, string, error) {
	alg, secret, found := strings.Cut(pair, ":")
	alg = strings.TrimSpace(alg)
	if !found || alg == "" || secret == "" {
		return "", "", errors.New("jwt secret must be formatted as algorithm:secret", errors.CategoryValidation).
			WithTextCode(TextCodeInvalidConfig).
			WithCode(errors.CodeBadRequest)
	}
	return strings.ToUpper(alg), secret, nil
}
