package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Control ControlConfig `yaml:"control"`
	Sampler SamplerConfig `yaml:"sampler"`
	Mock    MockConfig    `yaml:"mock"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Monitor MonitorConfig `yaml:"monitor"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// ControlConfig contains the regulator start-up values.
type ControlConfig struct {
	Setpoint    float64 `yaml:"setpoint"`     // Target temperature after reset (°C)
	InitialDuty uint8   `yaml:"initial_duty"` // Fan duty before the first sample (0-255)
}

// SamplerConfig contains ADC conversion parameters.
type SamplerConfig struct {
	Interval time.Duration `yaml:"interval"` // Time between conversions
}

// MockConfig contains simulated plant parameters.
type MockConfig struct {
	Ambient      float64       `yaml:"ambient"`       // Temperature reached with the fan at full duty (°C)
	Hot          float64       `yaml:"hot"`           // Temperature reached with the fan off (°C)
	Initial      float64       `yaml:"initial"`       // Plant temperature at start (°C)
	TimeConstant time.Duration `yaml:"time_constant"` // First-order thermal lag
	NoiseLevel   float64       `yaml:"noise_level"`   // Peak noise (°C)
	UARTBuffer   int           `yaml:"uart_buffer"`   // Bytes buffered in each direction
}

// MQTTConfig contains telemetry republishing parameters. An empty broker
// disables publishing.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	QoS      byte   `yaml:"qos"`
}

// MonitorConfig contains host-side statistics parameters.
type MonitorConfig struct {
	Window         time.Duration `yaml:"window"`          // Statistics window
	AverageSamples int           `yaml:"average_samples"` // Moving average length, 1 disables
	LogInterval    time.Duration `yaml:"log_interval"`    // Period of the statistics log line
	HTTPAddr       string        `yaml:"http_addr"`       // Status API address, empty disables
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0",
			BaudRate: 9600,
		},
		Control: ControlConfig{
			Setpoint:    25.0,
			InitialDuty: 30,
		},
		Sampler: SamplerConfig{
			Interval: 100 * time.Millisecond,
		},
		Mock: MockConfig{
			Ambient:      22.0,
			Hot:          40.0,
			Initial:      30.0,
			TimeConstant: 5 * time.Second,
			NoiseLevel:   0.05,
			UARTBuffer:   16,
		},
		MQTT: MQTTConfig{
			Broker:   "",
			Topic:    "gofan/temperature",
			ClientID: "gofan",
			QoS:      0,
		},
		Monitor: MonitorConfig{
			Window:         time.Minute,
			AverageSamples: 5,
			LogInterval:    5 * time.Second,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
// Temperatures and duties are left alone: 0 is a legal value for all of them.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Sampler.Interval <= 0 {
		c.Sampler.Interval = def.Sampler.Interval
	}

	if c.Mock.TimeConstant <= 0 {
		c.Mock.TimeConstant = def.Mock.TimeConstant
	}
	if c.Mock.UARTBuffer <= 0 {
		c.Mock.UARTBuffer = def.Mock.UARTBuffer
	}

	if c.MQTT.Topic == "" {
		c.MQTT.Topic = def.MQTT.Topic
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}

	if c.Monitor.Window <= 0 {
		c.Monitor.Window = def.Monitor.Window
	}
	if c.Monitor.AverageSamples <= 0 {
		c.Monitor.AverageSamples = def.Monitor.AverageSamples
	}
	if c.Monitor.LogInterval <= 0 {
		c.Monitor.LogInterval = def.Monitor.LogInterval
	}
}
