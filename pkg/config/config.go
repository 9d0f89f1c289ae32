package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/peterhellberg/duration"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	Port               = "port"
	DBPath             = "db-path"
	APIPrefix          = "api-prefix"
	RegistrationPolicy = "registration-policy"
	ShutdownGrace      = "shutdown-grace"
	MaxBodyBytes       = "max-body-bytes"
)

// EnvPrefix is prepended to every key looked up in the environment, so
// db-path is read from EXAMDESK_DB_PATH.
const EnvPrefix = "EXAMDESK"

func init() {
	SetDefaults(viper.GetViper())
}

func SetDefaults(v *viper.Viper) {
	// Port the HTTP API listens on
	v.SetDefault(Port, 3001)

	// Path of the JSON document holding users, exams and drafts
	v.SetDefault(DBPath, "data/db.json")

	// Path every API route is mounted under
	v.SetDefault(APIPrefix, "/api")

	// What registering a known phone does, reject or login
	v.SetDefault(RegistrationPolicy, "reject")

	// How long in-flight requests get to finish on shutdown, e.g. 10s or 1m
	v.SetDefault(ShutdownGrace, "10s")

	// Largest request body accepted, in bytes
	v.SetDefault(MaxBodyBytes, 1<<20)
}

// BindFlags declares one flag per key on fs and binds them to v, together
// with the EXAMDESK_ environment variables. Flags win over the environment.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.Int(Port, v.GetInt(Port), "port to serve the API on")
	fs.String(DBPath, v.GetString(DBPath), "path of the JSON database file")
	fs.String(APIPrefix, v.GetString(APIPrefix), "path prefix of the API routes")
	fs.String(RegistrationPolicy, v.GetString(RegistrationPolicy), "behaviour when a registered phone registers again (reject|login)")
	fs.String(ShutdownGrace, v.GetString(ShutdownGrace), "time allowed for in-flight requests on shutdown")
	fs.Int64(MaxBodyBytes, v.GetInt64(MaxBodyBytes), "maximum request body size in bytes")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return errors.Wrap(v.BindPFlags(fs), "binding flags")
}

type Config struct {
	Port               int
	DBPath             string
	APIPrefix          string
	RegistrationPolicy string
	ShutdownGrace      time.Duration
	MaxBodyBytes       int64
}

// Load resolves every key from v and rejects values the server cannot run
// with.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:               v.GetInt(Port),
		DBPath:             strings.TrimSpace(v.GetString(DBPath)),
		APIPrefix:          NormalizePrefix(v.GetString(APIPrefix)),
		RegistrationPolicy: v.GetString(RegistrationPolicy),
		MaxBodyBytes:       v.GetInt64(MaxBodyBytes),
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("%s must be between 1 and 65535, got %d", Port, cfg.Port)
	}
	if cfg.DBPath == "" {
		return Config{}, fmt.Errorf("%s must not be empty", DBPath)
	}
	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("%s must be positive, got %d", MaxBodyBytes, cfg.MaxBodyBytes)
	}

	grace, err := duration.Parse(v.GetString(ShutdownGrace))
	if err != nil {
		return Config{}, errors.Wrapf(err, "parsing %s", ShutdownGrace)
	}
	if grace < 0 {
		return Config{}, fmt.Errorf("%s must not be negative, got %s", ShutdownGrace, grace)
	}
	cfg.ShutdownGrace = grace

	return cfg, nil
}

// NormalizePrefix returns prefix with one leading slash and no trailing
// slash. The root prefix comes back as "".
func NormalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}
