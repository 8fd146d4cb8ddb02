package main

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

const (
	portKey      = "port"
	staticDirKey = "static_dir"
	dbPathKey    = "db_path"
	debugKey     = "debug"
	debugFileKey = "debug_file"
)

type config struct {
	Port      int
	StaticDir string
	// DBPath is the SQLite database file. If empty, revisions are kept in memory.
	DBPath string
	// DebugFile receives a JSONL dump of every request and commit. Setting it
	// implies Debug.
	Debug     bool
	DebugFile string
}

// loadConfig reads demo.{json,yaml,toml} from the working directory, if
// present, and environment variables prefixed with DELTA_, e.g. DELTA_PORT.
func loadConfig(v *viper.Viper) (config, error) {
	v.SetConfigName("demo")
	v.AddConfigPath(".")
	v.SetEnvPrefix("delta")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(portKey, 8009)
	v.SetDefault(staticDirKey, "")
	v.SetDefault(dbPathKey, "")
	v.SetDefault(debugKey, false)
	v.SetDefault(debugFileKey, "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config{}, err
		}
	}
	return config{
		Port:      v.GetInt(portKey),
		StaticDir: v.GetString(staticDirKey),
		DBPath:    v.GetString(dbPathKey),
		Debug:     v.GetBool(debugKey) || v.GetString(debugFileKey) != "",
		DebugFile: v.GetString(debugFileKey),
	}, nil
}
