package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"
)

// ValidationWarning is a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// ValidateDeep runs Validate and then checks everything that needs I/O or
// parsing: file paths, URLs and glob patterns.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
		criterio.Run("catalog.path", c.Catalog.Path, fileExistsIfSet),
		criterio.Run("remote.base_url", c.Remote.BaseURL, absoluteURLIfSet),
		c.validateCORSOrigins(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.Identity.Token != "" && c.Remote.BaseURL == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "identity",
			Message:  "identity.token is set but remote.base_url is empty; progress stays local",
		})
	}
	if c.Server.JWTSecret == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "server",
			Message:  "server.jwt_secret is empty; `cadence serve` will refuse to start",
		})
	}

	return warnings
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

func fileExistsIfSet(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	return nil
}

func absoluteURLIfSet(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("must be an absolute url, got %q", raw)
	}
	return nil
}

// validateCORSOrigins accepts exact origins and doublestar globs.
func (c *Config) validateCORSOrigins() error {
	var errs criterio.FieldErrorsBuilder
	for i, origin := range c.Server.CORSOrigins {
		if origin == "" {
			errs = errs.Append(fmt.Sprintf("server.cors_origins[%d]", i), fmt.Errorf("must not be empty"))
			continue
		}
		if !doublestar.ValidatePattern(origin) {
			errs = errs.Append(fmt.Sprintf("server.cors_origins[%d]", i), fmt.Errorf("invalid pattern %q", origin))
		}
	}
	return errs.ToError()
}
