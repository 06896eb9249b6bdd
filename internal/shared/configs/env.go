// Package configs loads the parameters of both binaries. Values come from
// built-in defaults, then ROBOTS_* environment variables (a .env file is
// honoured), then an optional YAML file, then command line flags.
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const envPrefix = "ROBOTS_"

// LoadDotEnv copies a .env file from the working directory into the
// environment. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%w: %s%s=%q", ErrInvalidConfig, envPrefix, key, v)
	}
	*dst = n
	return nil
}

func envList(key string, dst *[]string) {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		*dst = splitList(v)
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func loadFile(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.UnmarshalStrict(data, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

// listFlag is a comma separated flag.Value.
type listFlag struct {
	dst *[]string
}

func (l listFlag) String() string {
	if l.dst == nil {
		return ""
	}
	return strings.Join(*l.dst, ",")
}

func (l listFlag) Set(v string) error {
	*l.dst = splitList(v)
	return nil
}
