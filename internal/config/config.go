// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the standard locations.
const FileName = "dpcviz.yaml"

type Type struct {
	Source    string
	Namespace string
	Data      map[string]interface{}
}

var Config Type

// Load reads the config file and replaces the package level Config. The
// namespace of the previous Config is kept.
func Load() (Type, error) {
	path, err := getConfigPath()
	if err != nil {
		return Type{}, err
	}

	bytes, err := os.ReadFile(path)
	if err != nil {
		return Type{}, err
	}

	var data map[string]interface{}
	if err := yaml.Unmarshal(bytes, &data); err != nil {
		return Type{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	Config = Type{
		Source:    path,
		Namespace: Config.Namespace,
		Data:      data,
	}

	return Config, nil
}

// get traverses the map using a dotted key path. When a namespace is set the
// namespaced key wins over the bare key.
func (cfg *Type) get(kspec string) (any, error) {
	candidateKeys := []string{kspec}
	if cfg.Namespace != "" {
		candidateKeys = []string{cfg.Namespace + "." + kspec, kspec}
	}

	for _, key := range candidateKeys {
		var current interface{} = cfg.Data

		success := true
		for _, part := range strings.Split(key, ".") {
			m, ok := current.(map[string]interface{})
			if !ok {
				success = false
				break
			}
			current, ok = m[part]
			if !ok {
				success = false
				break
			}
		}

		if success {
			return current, nil
		}
	}

	return nil, fmt.Errorf("no valid path found among: %v", candidateKeys)
}

func lazyGet(key string) (any, error) {
	if len(Config.Data) == 0 {
		_, _ = Load()
	}
	return Config.get(key)
}

func GetString(key string, defaultValue ...string) (string, error) {
	val, err := lazyGet(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return "", err
	}

	s, ok := val.(string)
	if !ok {
		return "", errors.New("value is not a string")
	}

	return s, nil
}

func GetInt(key string, defaultValue ...int) (int, error) {
	val, err := lazyGet(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return 0, err
	}

	// YAML numbers may be unmarshaled as int/float64 depending on content.
	switch v := val.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, errors.New("value is not an int")
	}
}

func GetBool(key string, defaultValue ...bool) (bool, error) {
	val, err := lazyGet(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return false, err
	}

	b, ok := val.(bool)
	if !ok {
		return false, errors.New("value is not a bool")
	}
	return b, nil
}

// GetStringSlice accepts either a YAML sequence of strings or a single string,
// which is returned as a one element slice.
func GetStringSlice(key string, defaultValue ...[]string) ([]string, error) {
	val, err := lazyGet(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return nil, err
	}

	switch v := val.(type) {
	case string:
		return []string{v}, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("value at %s is not a list of strings", key)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, errors.New("value is not a list of strings")
	}
}

// getConfigPath resolves the config file. DPCVIZ_CFG wins when set; otherwise
// the first dpcviz.yaml found in XDG_CONFIG_HOME, APPDATA or HOME is used.
func getConfigPath() (string, error) {
	if p, ok := os.LookupEnv("DPCVIZ_CFG"); ok && p != "" {
		fileInfo, err := os.Stat(p)
		if err != nil {
			return "", fmt.Errorf("config file not found: %s", p)
		}
		if fileInfo.IsDir() {
			return "", fmt.Errorf("DPCVIZ_CFG points to a directory: %s", p)
		}
		log.Debugf("using config file: %s", p)
		return p, nil
	}

	candidates := []string{
		os.Getenv("XDG_CONFIG_HOME"),
		os.Getenv("APPDATA"),
		os.Getenv("HOME"),
	}

	for _, c := range candidates {
		if c == "" {
			continue
		}
		file := filepath.Join(c, FileName)
		if fileInfo, err := os.Stat(file); err == nil {
			if !fileInfo.IsDir() {
				log.Debugf("using config file: %s", file)
				return file, nil
			}
		}
	}
	return "", fmt.Errorf("no config file found in standard locations")
}
