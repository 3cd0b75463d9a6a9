package properties

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	RootPath        string `validate:"required"`
	LogLevel        string `validate:"oneof=trace debug info warn error fatal panic disabled"`
	Workers         int    `validate:"gte=1,lte=64"`
	MaskNoData      bool
	NotificationURL string `validate:"omitempty,url"`
}

func Default() Config {
	return Config{
		RootPath:   ".",
		LogLevel:   "info",
		Workers:    4,
		MaskNoData: true,
	}
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s fails %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c Config) MappingsPath() string {
	return filepath.Join(c.RootPath, "data", "mappings")
}

// Load reads the optional .env files, then the process environment.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv assembles a Config from lookup, falling back to Default.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup("ROOT_PATH"); ok && v != "" {
		cfg.RootPath = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup("WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("invalid WORKERS %q: %w", v, err)
		}
		cfg.Workers = n
	}
	if v, ok := lookup("MASK_NODATA"); ok && v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("invalid MASK_NODATA %q: %w", v, err)
		}
		cfg.MaskNoData = b
	}
	if v, ok := lookup("NOTIFICATION_URL"); ok {
		cfg.NotificationURL = strings.TrimSpace(v)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
