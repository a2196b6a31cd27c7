// Package config loads the glg configuration file.
//
// The file is CUE. It is unified with an embedded schema that supplies
// defaults and rejects unknown fields, so an absent file yields a usable
// configuration:
//
//	storage: {
//		driver: "redis"
//		redis: addr: "cache.internal:6379"
//	}
//	remote: baseURL: "https://glg.example.com/api"
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaCUE []byte

// EnvAPIURL overrides remote.baseURL when set.
const EnvAPIURL = "GLG_API_URL"

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Config is the decoded configuration.
type Config struct {
	Storage Storage
	Remote  Remote
	Device  Device
}

// Storage selects and configures the Storage Port backend.
type Storage struct {
	Driver    string
	Path      string
	Namespace string
	Redis     Redis
}

// Redis configures the redis backend.
type Redis struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

// Remote configures the account API client.
type Remote struct {
	BaseURL    string
	AuthScheme string
	Timeout    time.Duration
}

// Device describes the device the portal runs on.
type Device struct {
	// Location names the time zone whose midnight ends the activity day:
	// "Local", "UTC" or an IANA name.
	Location string
}

// ConfigError reports an invalid configuration file.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// file mirrors the schema for decoding.
type file struct {
	Storage struct {
		Driver    string `json:"driver"`
		Path      string `json:"path"`
		Namespace string `json:"namespace"`
		Redis     struct {
			Addr     string `json:"addr"`
			Password string `json:"password"`
			DB       int    `json:"db"`
			Timeout  string `json:"timeout"`
		} `json:"redis"`
	} `json:"storage"`
	Remote struct {
		BaseURL    string `json:"baseURL"`
		AuthScheme string `json:"authScheme"`
		Timeout    string `json:"timeout"`
	} `json:"remote"`
	Device struct {
		Location string `json:"location"`
	} `json:"device"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	cfg, err := decode(nil, "")
	if err != nil {
		panic("config: embedded schema defaults are invalid: " + err.Error())
	}
	return cfg
}

// Load reads path. A missing file yields the defaults. The environment
// override is applied last.
func Load(path string) (Config, error) {
	var src []byte
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, &ConfigError{Path: path, Err: err}
		default:
			src = data
		}
	}

	cfg, err := decode(src, path)
	if err != nil {
		return Config{}, err
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.Remote.BaseURL = v
	}
	return cfg, nil
}

// Parse decodes CUE source without touching the filesystem or environment.
func Parse(src []byte) (Config, error) {
	return decode(src, "")
}

func decode(src []byte, path string) (Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, &ConfigError{Err: fmt.Errorf("schema: %w", err)}
	}
	v := schema.LookupPath(cue.ParsePath("#Config"))

	if len(src) > 0 {
		name := path
		if name == "" {
			name = "config.cue"
		}
		user := ctx.CompileBytes(src, cue.Filename(name))
		if err := user.Err(); err != nil {
			return Config{}, &ConfigError{Path: path, Err: err}
		}
		v = v.Unify(user)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, &ConfigError{Path: path, Err: err}
	}

	var f file
	if err := v.Decode(&f); err != nil {
		return Config{}, &ConfigError{Path: path, Err: err}
	}
	return f.config(path)
}

func (f file) config(path string) (Config, error) {
	redisTimeout, err := parseDuration("storage.redis.timeout", f.Storage.Redis.Timeout)
	if err != nil {
		return Config{}, &ConfigError{Path: path, Err: err}
	}
	remoteTimeout, err := parseDuration("remote.timeout", f.Remote.Timeout)
	if err != nil {
		return Config{}, &ConfigError{Path: path, Err: err}
	}

	cfg := Config{
		Storage: Storage{
			Driver:    f.Storage.Driver,
			Path:      f.Storage.Path,
			Namespace: f.Storage.Namespace,
			Redis: Redis{
				Addr:     f.Storage.Redis.Addr,
				Password: f.Storage.Redis.Password,
				DB:       f.Storage.Redis.DB,
				Timeout:  redisTimeout,
			},
		},
		Remote: Remote{
			BaseURL:    f.Remote.BaseURL,
			AuthScheme: f.Remote.AuthScheme,
			Timeout:    remoteTimeout,
		},
		Device: Device{Location: f.Device.Location},
	}
	if _, err := cfg.Device.TimeLocation(); err != nil {
		return Config{}, &ConfigError{Path: path, Err: err}
	}
	return cfg, nil
}

func parseDuration(field, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", field, s)
	}
	return d, nil
}

// TimeLocation resolves Location.
func (d Device) TimeLocation() (*time.Location, error) {
	switch d.Location {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(d.Location)
	if err != nil {
		return nil, fmt.Errorf("device.location: %w", err)
	}
	return loc, nil
}
