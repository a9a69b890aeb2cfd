package config

import (
	"log"

	"github.com/spf13/viper"
)

type Merchant struct {
	ID           string `mapstructure:"id"`
	SOAPPassword string `mapstructure:"soap-password"`
	SecretKey    string `mapstructure:"secret-key"`
	Test         bool   `mapstructure:"test"`
	Debug        bool   `mapstructure:"debug"`
}

type Proxy struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type URLs struct {
	Success      string `mapstructure:"success"`
	Error        string `mapstructure:"error"`
	Confirmation string `mapstructure:"confirmation"`
}

type Gateway struct {
	TimeoutMs int `mapstructure:"timeout-ms"`
}

type Database struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	SSLMode  string `mapstructure:"ssl-mode"`
}

type KafkaWriter struct {
	BatchSize      int `mapstructure:"batch-size"`
	BatchTimeoutMs int `mapstructure:"batch-timeout-ms"`
}

type KafkaBroker struct {
	URL string `mapstructure:"url"`
}

type KafkaTopic struct {
	StatusChanges string `mapstructure:"status-changes"`
}

type Kafka struct {
	Writer KafkaWriter `mapstructure:"writer"`
	Broker KafkaBroker `mapstructure:"broker"`
	Topic  KafkaTopic  `mapstructure:"topic"`
}

type FlexLink struct {
	SPID     string `mapstructure:"spid"`
	Password string `mapstructure:"password"`
	Test     bool   `mapstructure:"test"`
}

type Server struct {
	Port string `mapstructure:"port"`
}

type Metrics struct {
	URL          string `mapstructure:"url"`
	IntervalMs   int    `mapstructure:"interval-ms"`
	CommonLabels string `mapstructure:"common-labels"`
}

type Logs struct {
	URL string `mapstructure:"url"`
}

type Config struct {
	Merchant Merchant `mapstructure:"merchant"`
	Proxy    Proxy    `mapstructure:"proxy"`
	URLs     URLs     `mapstructure:"urls"`
	Gateway  Gateway  `mapstructure:"gateway"`
	Database Database `mapstructure:"database"`
	Kafka    Kafka    `mapstructure:"kafka"`
	FlexLink FlexLink `mapstructure:"flexlink"`
	Server   Server   `mapstructure:"server"`
	Metrics  Metrics  `mapstructure:"metrics"`
	Logs     Logs     `mapstructure:"logs"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func MustLoadConfig(path string) *Config {
	config, err := LoadConfig(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return config
}
