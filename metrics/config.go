package metrics

// Config 指标监控配置.
type Config struct {
	// Enabled 是否启用指标
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	// Path 指标暴露路径，默认 /metrics
	Path string `json:"path" yaml:"path" mapstructure:"path"`
	// Addr 指标 HTTP 监听地址，默认 :9090
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
	// Namespace 指标命名空间
	Namespace string `json:"namespace" yaml:"namespace" mapstructure:"namespace"`
}

// DefaultConfig 返回默认配置.
func DefaultConfig() *Config {
	return &Config{
		Path:      "/metrics",
		Addr:      ":9090",
		Namespace: "taskscheduler",
	}
}
