package config

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v2"

	"github.com/pg-sharding/shardmapctl/pkg/models/spqrerror"
)

// initConfig decodes a configuration file into target. The decoder is picked by the
// file name suffix.
//
// Parameters:
// - file: *os.File - the file to read the configuration from.
// - target: any - a pointer to the configuration struct.
//
// Returns:
// - error: an error if the configuration file format is unknown or if there was an error decoding the file.
func initConfig(file *os.File, target any) error {
	if strings.HasSuffix(file.Name(), ".toml") {
		_, err := toml.NewDecoder(file).Decode(target)
		return err
	}
	if strings.HasSuffix(file.Name(), ".yaml") || strings.HasSuffix(file.Name(), ".yml") {
		return yaml.NewDecoder(file).Decode(target)
	}
	if strings.HasSuffix(file.Name(), ".json") {
		return json.NewDecoder(file).Decode(target)
	}
	return spqrerror.Newf(spqrerror.SPQR_CONFIG_ERROR,
		"unknown config format type: %s. Use .toml, .yaml or .json suffix in filename", file.Name())
}