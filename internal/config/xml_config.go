// Package config provides XML-based configuration management.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"CerebroScan"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Inference service configuration
	Inference InferenceConfig `xml:"Inference"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Presentation configuration
	Presentation PresentationConfig `xml:"Presentation"`

	// Security configuration
	Security SecurityConfig `xml:"Security"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// InferenceConfig points at the classification service
type InferenceConfig struct {
	Endpoint       string `xml:"Endpoint"`
	FieldName      string `xml:"FieldName"`
	TimeoutSeconds int    `xml:"TimeoutSeconds"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	DataDirectory     string `xml:"DataDirectory"`
	ExportsDirectory  string `xml:"ExportsDirectory"`
	ArchivePath       string `xml:"ArchivePath"`
	EnablePersistence bool   `xml:"EnablePersistence"`
}

// PresentationConfig contains display settings
type PresentationConfig struct {
	RulesFile string `xml:"RulesFile"`
	DarkTheme bool   `xml:"DarkTheme"`
}

// SecurityConfig contains upload restrictions
type SecurityConfig struct {
	AllowedFileTypes string `xml:"AllowedFileTypes"`
	MaxFilesPerBatch int    `xml:"MaxFilesPerBatch"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8089,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  60,
			WriteTimeout: 60,
			IdleTimeout:  120,
			BodyLimit:    "200M",
		},
		Inference: InferenceConfig{
			Endpoint:       "http://localhost:5000",
			FieldName:      "images",
			TimeoutSeconds: 30,
		},
		Storage: StorageConfig{
			DataDirectory:     "./data",
			ExportsDirectory:  "./data/exports",
			ArchivePath:       "./data/results.duckdb",
			EnablePersistence: true,
		},
		Presentation: PresentationConfig{
			RulesFile: "./rules.yaml",
			DarkTheme: false,
		},
		Security: SecurityConfig{
			AllowedFileTypes: ".png,.jpg,.jpeg",
			MaxFilesPerBatch: 50,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- CerebroScan Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// PORT override
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// DATA_DIR override moves every storage path that lives under it
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
		c.Storage.ExportsDirectory = filepath.Join(dataDir, "exports")
		c.Storage.ArchivePath = filepath.Join(dataDir, "results.duckdb")
	}

	if endpoint := os.Getenv("INFERENCE_URL"); endpoint != "" {
		c.Inference.Endpoint = endpoint
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	paths := []*string{
		&c.Storage.DataDirectory,
		&c.Storage.ExportsDirectory,
		&c.Storage.ArchivePath,
		&c.Presentation.RulesFile,
	}
	for _, p := range paths {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// InferenceTimeout returns the predict request timeout
func (c *AppConfig) InferenceTimeout() time.Duration {
	if c.Inference.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Inference.TimeoutSeconds) * time.Second
}

// AllowedExtensions returns the lower-cased upload extensions, each with a leading dot
func (c *AppConfig) AllowedExtensions() []string {
	var exts []string
	for _, ext := range strings.Split(c.Security.AllowedFileTypes, ",") {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	return exts
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.ExportsDirectory,
		filepath.Dir(c.Storage.ArchivePath),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
