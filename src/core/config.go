// Utilities for reading the .hewconfig files.

package core

import (
	"fmt"
	"os"

	"github.com/coreos/go-semver/semver"
	"gopkg.in/gcfg.v1"
)

// ConfigFileName is the file name for the typical repo config - this is normally checked in.
const ConfigFileName = ".hewconfig"

// LocalConfigFileName is the file name for the local repo config - this is not normally
// checked in and used to override settings on the local machine.
const LocalConfigFileName = ".hewconfig.local"

// A Configuration contains all the settings that can be defined in .hewconfig files.
type Configuration struct {
	Hew struct {
		Generator string `gcfg:"generator"`
		Version   string `gcfg:"version"`
	} `gcfg:"hew"`
	Variable map[string]*struct {
		Value string `gcfg:"value"`
	} `gcfg:"variable"`
}

// DefaultConfiguration returns a configuration with the default values filled in.
func DefaultConfiguration() *Configuration {
	config := &Configuration{}
	config.Variable = map[string]*struct {
		Value string `gcfg:"value"`
	}{}
	return config
}

func readConfigFile(config *Configuration, filename string) error {
	log.Debug("Reading config from %s...", filename)
	if err := gcfg.ReadFileInto(config, filename); err != nil && os.IsNotExist(err) {
		return nil // It's not an error to not have the file at all.
	} else if gcfg.FatalOnly(err) != nil {
		return err
	} else if err != nil {
		log.Warning("Error in config file: %s", err)
	}
	return nil
}

// ReadConfigFiles reads all the config locations, in order, and merges them into
// a config object. Values are overridden by each file in turn.
func ReadConfigFiles(filenames []string) (*Configuration, error) {
	config := DefaultConfiguration()
	for _, filename := range filenames {
		if err := readConfigFile(config, filename); err != nil {
			return config, err
		}
	}
	return config, nil
}

// CheckVersion returns an error if the config demands a newer version of
// the tool than the one running.
func (config *Configuration) CheckVersion(current string) error {
	if config.Hew.Version == "" {
		return nil
	}
	min, err := semver.NewVersion(config.Hew.Version)
	if err != nil {
		return fmt.Errorf("invalid version in configuration: %s", err)
	}
	if semver.New(current).LessThan(*min) {
		return fmt.Errorf("this repo requires hew >= %s, but this is version %s", min, current)
	}
	return nil
}

// DefaultVariables returns the variables defined in the config, as the
// lowest-precedence layer of the initial variables mapping.
func (config *Configuration) DefaultVariables() map[string]Value {
	variables := map[string]Value{}
	for name, v := range config.Variable {
		variables[name] = Str(v.Value)
	}
	return variables
}
