package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zapcore"
)

// ConfigTestSuite 配置测试套件.
type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (s *ConfigTestSuite) TestValidate_NilConfig() {
	var config *Config
	err := config.Validate()

	s.Error(err)
	s.IsType(&ConfigError{}, err)
	s.Equal("config", err.(*ConfigError).Field)
}

func (s *ConfigTestSuite) TestValidate_EmptyConfig() {
	s.NoError((&Config{}).Validate())
}

func (s *ConfigTestSuite) TestValidate_InvalidLevel() {
	err := (&Config{Level: "invalid_level"}).Validate()

	s.Error(err)
	s.Equal("level", err.(*ConfigError).Field)
}

func (s *ConfigTestSuite) TestValidate_InvalidFormat() {
	err := (&Config{Format: "xml"}).Validate()

	s.Error(err)
	s.Equal("format", err.(*ConfigError).Field)
}

func (s *ConfigTestSuite) TestValidate_InvalidOutput() {
	err := (&Config{Output: "syslog"}).Validate()

	s.Error(err)
	s.Equal("output", err.(*ConfigError).Field)
}

func (s *ConfigTestSuite) TestValidate_FileOutputRequiresDir() {
	err := (&Config{Output: OutputBoth}).Validate()

	s.Error(err)
	s.Equal("log_dir", err.(*ConfigError).Field)
}

func (s *ConfigTestSuite) TestApplyDefaults() {
	config := &Config{}
	config.ApplyDefaults()

	s.Equal(TypeZap, config.Type)
	s.Equal(LevelInfo, config.Level)
	s.Equal(FormatJSON, config.Format)
	s.Equal(OutputConsole, config.Output)
	s.Equal(TimeFormatDateTime, config.TimeFormat)
	s.NotEmpty(config.ServiceName)
}

func (s *ConfigTestSuite) TestApplyDefaults_KeepsValues() {
	config := &Config{Level: LevelError, Format: FormatConsole}
	config.ApplyDefaults()

	s.Equal(LevelError, config.Level)
	s.Equal(FormatConsole, config.Format)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}
