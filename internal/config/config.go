// Package config loads the optional YAML configuration file of the daemon.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/button-sensor/internal/button"
)

// Config is the daemon configuration. Zero fields are filled in by
// applyDefaults; command line flags override them in main.
type Config struct {
	Name      string        `yaml:"name"`
	GPIO      GPIOConfig    `yaml:"gpio"`
	MQTT      MQTTConfig    `yaml:"mqtt"`
	HTTP      HTTPConfig    `yaml:"http"`
	Console   ConsoleConfig `yaml:"console"`
	Servo     ServoConfig   `yaml:"servo"`
	Heartbeat int           `yaml:"heartbeat_interval_ms"`
}

// GPIOConfig selects the button line and how it is sampled.
type GPIOConfig struct {
	Chip           string `yaml:"chip"`
	Pin            int    `yaml:"pin"`
	ActiveLevel    string `yaml:"active_level"` // "low" or "high"
	PollIntervalMs int    `yaml:"poll_interval_ms"`
}

// MQTTConfig names the broker and the topic prefix events go to.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"`
}

// HTTPConfig holds the status server listen address. An empty Addr after
// defaults means ":80".
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// ConsoleConfig enables the serial command console when Port is set.
type ConsoleConfig struct {
	Port string `yaml:"port,omitempty"`
	Baud int    `yaml:"baud,omitempty"`
	// Newline terminates transmitted messages, at most 3 bytes.
	Newline string `yaml:"newline,omitempty"`
	// TxBuffer bounds one transmitted message in bytes (8 to 512).
	TxBuffer int `yaml:"tx_buffer,omitempty"`
}

// ServoConfig locates the sysfs PWM channel driving the optional servo.
type ServoConfig struct {
	PWMChip int  `yaml:"pwm_chip"`
	Channel int  `yaml:"channel"`
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

// Load reads, validates and fills in defaults for the YAML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.GPIO.ActiveLevel {
	case "", "low", "high":
	default:
		return fmt.Errorf("gpio.active_level must be \"low\" or \"high\", got %q", c.GPIO.ActiveLevel)
	}
	if c.GPIO.Pin < 0 {
		return fmt.Errorf("gpio.pin must not be negative")
	}
	// The debounce filter needs several samples inside its window.
	if c.GPIO.PollIntervalMs < 0 || c.GPIO.PollIntervalMs > button.DebounceTime {
		return fmt.Errorf("gpio.poll_interval_ms must be between 1 and %d (0 selects the default)", button.DebounceTime)
	}
	if c.Heartbeat < 0 {
		return fmt.Errorf("heartbeat_interval_ms must not be negative")
	}
	if c.Console.Baud < 0 {
		return fmt.Errorf("console.baud must not be negative")
	}
	if len(c.Console.Newline) > 3 {
		return fmt.Errorf("console.newline must be at most 3 bytes")
	}
	if c.Console.TxBuffer != 0 && (c.Console.TxBuffer < 8 || c.Console.TxBuffer > 512) {
		return fmt.Errorf("console.tx_buffer must be between 8 and 512 (0 selects the default)")
	}
	if c.Servo.PWMChip < 0 || c.Servo.Channel < 0 {
		return fmt.Errorf("servo.pwm_chip and servo.channel must not be negative")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "button"
	}
	if c.GPIO.Chip == "" {
		c.GPIO.Chip = "gpiochip0"
	}
	// BCM 0 is the HAT EEPROM line, so 0 means unset.
	if c.GPIO.Pin == 0 {
		c.GPIO.Pin = 17
	}
	if c.GPIO.ActiveLevel == "" {
		c.GPIO.ActiveLevel = "low"
	}
	if c.GPIO.PollIntervalMs == 0 {
		c.GPIO.PollIntervalMs = 5
	}
	if c.MQTT.Broker == "" {
		c.MQTT.Broker = "tcp://localhost:1883"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "button-sensor"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":80"
	}
	if c.Console.Baud == 0 {
		c.Console.Baud = 115200
	}
	if c.Console.Newline == "" {
		c.Console.Newline = "\r\n"
	}
	if c.Console.TxBuffer == 0 {
		c.Console.TxBuffer = 256
	}
}

// Level returns the configured polarity.
func (c *Config) Level() button.ActiveLevel {
	if c.GPIO.ActiveLevel == "high" {
		return button.ActiveHigh
	}
	return button.ActiveLow
}

// Exists reports whether a file can be stat'ed at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
