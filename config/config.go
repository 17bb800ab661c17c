// Copyright (c) 2020 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

// Package config loads eztimeline settings from defaults, a YAML file, .env
// files and EZTIMELINE_ prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigPathEnvVar names the environment variable that points to a config file.
	ConfigPathEnvVar = "EZTIMELINE_CONFIG_PATH"
	envPrefix        = "EZTIMELINE"
)

// Tools holds the executables of the three parser families.
type Tools struct {
	RECmd   string `mapstructure:"recmd" yaml:"recmd"`
	JLECmd  string `mapstructure:"jlecmd" yaml:"jlecmd"`
	MFTECmd string `mapstructure:"mftecmd" yaml:"mftecmd"`
}

// Upload configures pushing finalized artifacts to S3 compatible storage.
type Upload struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	Region    string `mapstructure:"region" yaml:"region"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
}

// Enabled reports whether an upload target is configured.
func (u Upload) Enabled() bool {
	return strings.TrimSpace(u.Endpoint) != ""
}

// Config holds all configuration for a pipeline run.
type Config struct {
	Debug       bool   `mapstructure:"debug" yaml:"debug"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	EvidenceDir string `mapstructure:"evidence_dir" yaml:"evidence_dir"`
	OutputDir   string `mapstructure:"output_dir" yaml:"output_dir"`
	BatchFile   string `mapstructure:"batch_file" yaml:"batch_file"`
	Tools       Tools  `mapstructure:"tools" yaml:"tools"`
	Archive     struct {
		Sqlar bool `mapstructure:"sqlar" yaml:"sqlar"`
	} `mapstructure:"archive" yaml:"archive"`
	Store struct {
		Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	} `mapstructure:"store" yaml:"store"`
	Upload Upload `mapstructure:"upload" yaml:"upload"`
}

// Load reads the configuration. Precedence, highest first: environment
// variables, the config file, defaults. An explicitly named config file must
// exist; the implicit ./eztimeline.yaml is optional.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	if configPath == "" {
		if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
			if _, err := os.Stat(envPath); os.IsNotExist(err) {
				return nil, fmt.Errorf("config file specified in %s not found: %s", ConfigPathEnvVar, envPath)
			}
			configPath = envPath
		}
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("eztimeline")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	_ = v.Unmarshal(&config)
	return &config
}

// WriteDefault serializes the default configuration as YAML.
func WriteDefault(path string) error {
	b, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	return os.WriteFile(path, b, 0600)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("log_level", "info")

	v.SetDefault("evidence_dir", "Forensic_Evidence")
	v.SetDefault("output_dir", "Forensics_Results")
	v.SetDefault("batch_file", "UserActivity.reb")

	v.SetDefault("tools.recmd", "RECmd.exe")
	v.SetDefault("tools.jlecmd", "JLECmd.exe")
	v.SetDefault("tools.mftecmd", "MFTECmd.exe")

	v.SetDefault("archive.sqlar", false)
	v.SetDefault("store.enabled", true)

	v.SetDefault("upload.endpoint", "")
	v.SetDefault("upload.region", "us-east-1")
	v.SetDefault("upload.access_key", "")
	v.SetDefault("upload.secret_key", "")
	v.SetDefault("upload.bucket", "eztimeline")
	v.SetDefault("upload.use_ssl", true)
}
