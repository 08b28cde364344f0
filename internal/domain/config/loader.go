package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Loader loads bundles, secrets and attributes from the local filesystem.
type Loader struct {
	readFile func(string) ([]byte, error)
}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{readFile: os.ReadFile}
}

func (l *Loader) read(path string) ([]byte, error) {
	data, err := l.readFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewConfigNotFoundError(path)
		}
		return nil, err
	}
	return data, nil
}

// LoadSecret reads a data bag secret file.
func (l *Loader) LoadSecret(path string) ([]byte, error) {
	data, err := l.read(path)
	if err != nil {
		return nil, err
	}
	secret, err := ParseSecret(data)
	if err != nil {
		return nil, NewUserError(ErrCodeSecretMissing, "secret file is empty").WithContext(path)
	}
	return secret, nil
}

// LoadBundle loads a bundle by file extension. A .json file is treated as a
// data bag item and is decrypted with the secret at secretPath when its
// values are encrypted.
func (l *Loader) LoadBundle(path, secretPath string) (*Bundle, error) {
	data, err := l.read(path)
	if err != nil {
		return nil, err
	}

	var envs map[string]Environment
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		envs, err = l.parseItem(path, data, secretPath)
	case ".yaml", ".yml":
		envs, err = parseYAMLBundle(data)
	case ".toml":
		envs, err = parseTOMLBundle(data)
	default:
		return nil, NewUnsupportedFormatError(path)
	}
	if err != nil {
		var ue *UserError
		if errors.As(err, &ue) {
			return nil, err
		}
		return nil, NewConfigParseError(path, err)
	}
	return NewBundle(envs, path), nil
}

// LoadItem reads a data bag item and decrypts it when needed.
func (l *Loader) LoadItem(path, secretPath string) (map[string]json.RawMessage, error) {
	data, err := l.read(path)
	if err != nil {
		return nil, err
	}
	return l.decodeItem(path, data, secretPath)
}

func (l *Loader) decodeItem(path string, data []byte, secretPath string) (map[string]json.RawMessage, error) {
	var item map[string]json.RawMessage
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, NewConfigParseError(path, err)
	}
	if !IsEncryptedItem(item) {
		return item, nil
	}
	if secretPath == "" {
		return nil, NewSecretMissingError(path)
	}
	secret, err := l.LoadSecret(secretPath)
	if err != nil {
		return nil, err
	}
	decrypted, err := DecryptItem(item, secret)
	if err != nil {
		return nil, err
	}
	return decrypted, nil
}

func (l *Loader) parseItem(path string, data []byte, secretPath string) (map[string]Environment, error) {
	item, err := l.decodeItem(path, data, secretPath)
	if err != nil {
		return nil, err
	}
	envs := make(map[string]Environment, len(item))
	for name, raw := range item {
		if name == itemIDKey {
			continue
		}
		var env Environment
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("environment %q: %w", name, err)
		}
		envs[name] = env
	}
	return envs, nil
}

func parseYAMLBundle(data []byte) (map[string]Environment, error) {
	var nodes map[string]yaml.Node
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		return nil, err
	}
	envs := make(map[string]Environment, len(nodes))
	for name, node := range nodes {
		if name == itemIDKey {
			continue
		}
		var env Environment
		if err := node.Decode(&env); err != nil {
			return nil, fmt.Errorf("environment %q: %w", name, err)
		}
		envs[name] = env
	}
	return envs, nil
}

func parseTOMLBundle(data []byte) (map[string]Environment, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	delete(raw, itemIDKey)
	// Re-encode without the id so the remaining tables decode strictly.
	stripped, err := toml.Marshal(raw)
	if err != nil {
		return nil, err
	}
	envs := make(map[string]Environment, len(raw))
	if err := toml.Unmarshal(stripped, &envs); err != nil {
		return nil, err
	}
	return envs, nil
}

// LoadAttributes loads node attributes. An empty path yields defaults.
func (l *Loader) LoadAttributes(path string) (Attributes, error) {
	if path == "" {
		return DefaultAttributes(), nil
	}
	data, err := l.read(path)
	if err != nil {
		return Attributes{}, err
	}
	attrs, err := ParseAttributes(data)
	if err != nil {
		return Attributes{}, NewConfigParseError(path, err)
	}
	return attrs, nil
}
