package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// DefaultCheckInterval applies to sites without check_interval, in seconds.
const DefaultCheckInterval = 30

// TargetsFile is the YAML site list:
//
//	sites:
//	  - name: httpbin
//	    url: https://httpbin.org
//	    endpoints: ["/get", "/status/200"]
//	    check_interval: 30
type TargetsFile struct {
	Sites []Site `yaml:"sites" validate:"required,min=1,dive"`
}

type Site struct {
	Name          string   `yaml:"name" validate:"required"`
	URL           string   `yaml:"url" validate:"required,http_url"`
	Endpoints     []string `yaml:"endpoints" validate:"required,min=1,dive,required,startswith=/"`
	CheckInterval int      `yaml:"check_interval" validate:"gte=1"`
}

// DefaultSites is used when no targets file is configured.
func DefaultSites() TargetsFile {
	return TargetsFile{Sites: []Site{{
		Name:          "httpbin",
		URL:           "https://httpbin.org",
		Endpoints:     []string{"/get", "/status/200", "/status/404"},
		CheckInterval: DefaultCheckInterval,
	}}}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadTargets reads path from fs. An empty path yields DefaultSites.
func LoadTargets(fs afero.Fs, path string) (TargetsFile, error) {
	if path == "" {
		return DefaultSites(), nil
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return TargetsFile{}, fmt.Errorf("read targets file: %w", err)
	}
	return ParseTargets(data)
}

// ParseTargets decodes, env-expands, defaults and validates a targets file.
// ${VAR} and ${VAR:-default} are expanded in site URLs.
func ParseTargets(data []byte) (TargetsFile, error) {
	var f TargetsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return TargetsFile{}, fmt.Errorf("parse targets file: %w", err)
	}
	var errs error
	for i := range f.Sites {
		s := &f.Sites[i]
		s.Name = strings.TrimSpace(s.Name)
		url, err := expandEnv(s.URL)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("sites[%d].url: %w", i, err))
		}
		s.URL = strings.TrimRight(url, "/")
		if s.CheckInterval == 0 {
			s.CheckInterval = DefaultCheckInterval
		}
	}
	if errs != nil {
		return TargetsFile{}, errs
	}
	if err := f.Validate(); err != nil {
		return TargetsFile{}, err
	}
	return f, nil
}

// Validate reports every problem in f at once.
func (f TargetsFile) Validate() error {
	var errs error
	if err := validate.Struct(f); err != nil {
		if ves, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range ves {
				errs = multierr.Append(errs, fmt.Errorf("%s: failed %q check", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = multierr.Append(errs, err)
		}
	}
	seen := make(map[string]bool, len(f.Sites))
	for i, s := range f.Sites {
		if s.Name == "" {
			continue
		}
		if seen[s.Name] {
			errs = multierr.Append(errs, fmt.Errorf("sites[%d]: duplicate site name %q", i, s.Name))
		}
		seen[s.Name] = true
	}
	return errs
}

// Targets converts the file into registry targets, preserving order.
func (f TargetsFile) Targets() []domain.Target {
	out := make([]domain.Target, 0, len(f.Sites))
	for _, s := range f.Sites {
		out = append(out, domain.Target{
			Name:      s.Name,
			BaseURL:   s.URL,
			Endpoints: append([]string(nil), s.Endpoints...),
			Interval:  time.Duration(s.CheckInterval) * time.Second,
		})
	}
	return out
}

func expandEnv(s string) (string, error) {
	var missing []string
	out := os.Expand(s, func(key string) string {
		name, def, hasDef := strings.Cut(key, ":-")
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		if !hasDef {
			missing = append(missing, name)
		}
		return def
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("environment variable %q is not set", missing[0])
	}
	return out, nil
}
