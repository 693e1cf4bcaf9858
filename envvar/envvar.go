package envvar

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aatuh/envvar"
)

// Adapter provides environment variable access using the envvar library.
type Adapter struct{}

// New creates a new envvar adapter.
func New() *Adapter {
	return &Adapter{}
}

// LoadEnvFiles loads the given env files, skipping the ones that do not
// exist.
func (a *Adapter) LoadEnvFiles(paths []string) {
	present := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			present = append(present, p)
		}
	}
	if len(present) == 0 {
		return
	}
	envvar.MustLoadEnvVars(present)
}

// Get returns the raw value and presence indicator.
func (a *Adapter) Get(key string) (string, bool) {
	v := envvar.Get(key)
	return v, v != ""
}

// GetOr returns the value or default if not present.
func (a *Adapter) GetOr(key, def string) string {
	return envvar.GetOr(key, def)
}

// GetIntOr returns the value as integer. Missing values yield def; malformed
// values are an error so a typo does not silently fall back.
func (a *Adapter) GetIntOr(key string, def int) (int, error) {
	v := strings.TrimSpace(envvar.Get(key))
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: not an integer: %q", key, v)
	}
	return i, nil
}

// GetDurationOr parses a Go duration string ("1s", "250ms").
func (a *Adapter) GetDurationOr(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(envvar.Get(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: not a duration: %q", key, v)
	}
	return d, nil
}

// DumpRedacted returns the set keys with secrets redacted. Unset keys are
// omitted.
func (a *Adapter) DumpRedacted(keys ...string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		v, ok := a.Get(k)
		if !ok {
			continue
		}
		upper := strings.ToUpper(k)
		if strings.Contains(upper, "SECRET") ||
			strings.Contains(upper, "TOKEN") ||
			strings.Contains(upper, "PASSWORD") ||
			strings.HasSuffix(upper, "_KEY") {
			out[k] = "***"
		} else {
			out[k] = v
		}
	}
	return out
}
