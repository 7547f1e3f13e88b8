package config

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v2"
)

// Serializer 配置文件格式
type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	GetFileExt() string // 扩展名，如 .yml
	GetName() string    // 格式名称，如 yaml
}

// SerializerByName 按格式名称或扩展名查找内置格式
func SerializerByName(name string) (Serializer, bool) {
	switch strings.TrimPrefix(strings.ToLower(name), ".") {
	case "yaml", "yml":
		return &YAMLSerializer{}, true
	case "json":
		return &JSONSerializer{}, true
	case "ini":
		return &INISerializer{}, true
	}
	return nil, false
}

// SerializerForPath 按文件后缀选择格式，无法识别时返回 YAML
func SerializerForPath(path string) Serializer {
	if s, ok := SerializerByName(filepath.Ext(path)); ok {
		return s
	}
	return &YAMLSerializer{}
}

// YAMLSerializer YAML序列化实现
type YAMLSerializer struct{}

func (y *YAMLSerializer) Marshal(v any) ([]byte, error)      { return yaml.Marshal(v) }
func (y *YAMLSerializer) Unmarshal(data []byte, v any) error { return yaml.Unmarshal(data, v) }
func (y *YAMLSerializer) GetFileExt() string                 { return ".yml" }
func (y *YAMLSerializer) GetName() string                    { return "yaml" }

// JSONSerializer JSON序列化实现
type JSONSerializer struct{}

func (j *JSONSerializer) Marshal(v any) ([]byte, error)      { return json.MarshalIndent(v, "", "  ") }
func (j *JSONSerializer) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (j *JSONSerializer) GetFileExt() string                 { return ".json" }
func (j *JSONSerializer) GetName() string                    { return "json" }

// INISerializer INI序列化实现，只适用于扁平的分节配置，不支持列表
type INISerializer struct{}

func (i *INISerializer) Marshal(v any) ([]byte, error) {
	cfg := ini.Empty()
	if err := cfg.ReflectFrom(v); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (i *INISerializer) Unmarshal(data []byte, v any) error {
	cfg, err := ini.Load(data)
	if err != nil {
		return err
	}
	return cfg.MapTo(v)
}

func (i *INISerializer) GetFileExt() string { return ".ini" }
func (i *INISerializer) GetName() string    { return "ini" }
