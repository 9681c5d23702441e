// Package config loads this runtime's settings through viper, the way
// direktiv-vorteil's vconvert package does: an optional config file
// overlaid with defaults, consulted through a package-level viper
// instance rather than threading a config struct through every layer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/psu-powerlab/se2030/pkg/der"
	"github.com/psu-powerlab/se2030/pkg/elog"
)

const configFileName = "se2030d.yaml"

const (
	keySchemaID      = "schemaId"
	keyListenScheme  = "listen-scheme"
	keyMeteringRate  = "metering-post-rate-seconds"
	keySettingsDir   = "settings-dir"
	keyCertDir       = "cert-dir"
)

// Init reads cfgFile if given, else looks for configFileName in the
// user's home directory, falling back to built-in defaults when
// neither is found. Grounded on vconvert.initConfig's
// SetConfigFile/AddConfigPath/ReadInConfig sequence.
func Init(cfgFile string, log elog.Logger) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		// viper takes the name without extension and tries each
		// supported one, so "se2030d.yaml" is found as "se2030d".
		viper.SetConfigName(strings.TrimSuffix(configFileName, filepath.Ext(configFileName)))
	}

	if err := viper.ReadInConfig(); err == nil {
		log.Debugf("using config file: %s", viper.ConfigFileUsed())
	} else {
		log.Debugf("%s", err.Error())
		log.Debugf("using default settings")
	}

	viper.SetDefault(keySchemaID, "S1")
	viper.SetDefault(keyListenScheme, "https")
	viper.SetDefault(keyMeteringRate, 300)
	viper.SetDefault(keySettingsDir, filepath.Join(".", "settings"))
	viper.SetDefault(keyCertDir, filepath.Join(".", "certs"))
}

// SchemaID is the options-header schemaId exchanged with servers.
func SchemaID() string { return viper.GetString(keySchemaID) }

// ListenScheme is "https" or "http" for the client's own resource
// server, when this runtime exposes one.
func ListenScheme() string { return viper.GetString(keyListenScheme) }

// MeteringPostRateSeconds is how often mirrored usage point readings
// are pushed upstream.
func MeteringPostRateSeconds() int { return viper.GetInt(keyMeteringRate) }

// SettingsDir is the directory DeviceSettings loads per-device
// overrides from.
func SettingsDir() string { return viper.GetString(keySettingsDir) }

// CertDir is the directory device certificates are loaded from.
func CertDir() string { return viper.GetString(keyCertDir) }

// LoadDeviceSettings reads the YAML settings file for sfdi out of dir
// (SettingsDir by default), producing a der.Settings. A missing file is
// not an error: the device simply has no overrides yet.
func LoadDeviceSettings(dir string, sfdi uint64) (der.Settings, error) {
	path := filepath.Join(dir, fmt.Sprintf("%d.yaml", sfdi))

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return der.Settings{Dir: dir}, nil
		}
		return der.Settings{}, fmt.Errorf("config: load device settings %s: %w", path, err)
	}

	values := make(map[string]string)
	for _, key := range v.AllKeys() {
		values[key] = v.GetString(key)
	}

	return der.Settings{Dir: dir, Values: values}, nil
}
