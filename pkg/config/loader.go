package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var placeholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// LoadConfig 按层加载配置：base.yaml <- <env>.yaml，然后展开 ${VAR} 占位符。
// 占位符先查系统环境变量，再查 configDir/secrets.env；都没有时原样保留。
func LoadConfig(env string, configDir string) (map[string]any, error) {
	if configDir == "" {
		configDir = "config"
	}

	merged, err := readLayer(filepath.Join(configDir, "base.yaml"), false)
	if err != nil {
		return nil, err
	}

	if env != "" && env != "base" {
		overlay, err := readLayer(filepath.Join(configDir, env+".yaml"), true)
		if err != nil {
			return nil, err
		}
		mergeInto(merged, overlay)
	}

	secrets, err := readSecrets(filepath.Join(configDir, "secrets.env"))
	if err != nil {
		return nil, err
	}

	lookup := func(name string) (string, bool) {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			return v, true
		}
		v, ok := secrets[name]
		return v, ok
	}
	return expand(merged, lookup).(map[string]any), nil
}

// readLayer parses one yaml file. A missing optional file is an empty layer.
func readLayer(path string, optional bool) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if optional && errors.Is(err, fs.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", filepath.Base(path), err)
	}

	layer := map[string]any{}
	if err := yaml.Unmarshal(data, &layer); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return layer, nil
}

// readSecrets parses KEY=VALUE lines; the file is optional.
func readSecrets(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load secrets.env: %w", err)
	}

	secrets := map[string]string{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
			value = value[1 : len(value)-1]
		}
		secrets[strings.TrimSpace(key)] = value
	}
	return secrets, sc.Err()
}

// mergeInto overlays src onto dst; nested maps merge, everything else replaces.
func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := dst[k].(map[string]any)
		if srcIsMap && dstIsMap {
			mergeInto(dstMap, srcMap)
			continue
		}
		dst[k] = v
	}
}

func expand(node any, lookup func(string) (string, bool)) any {
	switch v := node.(type) {
	case string:
		return placeholder.ReplaceAllStringFunc(v, func(m string) string {
			if val, ok := lookup(m[2 : len(m)-1]); ok {
				return val
			}
			return m
		})
	case map[string]any:
		for k, child := range v {
			v[k] = expand(child, lookup)
		}
		return v
	case []any:
		for i, child := range v {
			v[i] = expand(child, lookup)
		}
		return v
	default:
		return node
	}
}

// GetEnv 获取环境变量，如果未设置则返回默认值
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetConfigEnv 获取配置环境（CONFIG_ENV，默认 local）
func GetConfigEnv() string {
	return GetEnv("CONFIG_ENV", "local")
}
