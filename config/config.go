package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const envPrefix = "SUDOKU"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	OCR       OCRConfig       `mapstructure:"ocr"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type UploadConfig struct {
	MaxSize   int64  `mapstructure:"max_size"`
	UploadDir string `mapstructure:"upload_dir"`
	// AllowedTypes 与嗅探到的 MIME 类型比对，为空时不限制
	AllowedTypes []string `mapstructure:"allowed_types"`
	Cleanup      bool     `mapstructure:"cleanup"`
}

type ExtractorConfig struct {
	MaxConcurrent int           `mapstructure:"max_concurrent"`
	QueueTimeout  time.Duration `mapstructure:"queue_timeout"`
	// CellSize OCR 前每个格子缩放到的边长
	CellSize int `mapstructure:"cell_size"`
}

// OCRConfig Tesseract 配置，运行期间唯一支持热更新的部分
type OCRConfig struct {
	TessdataPrefix string        `mapstructure:"tessdata_prefix"`
	Language       string        `mapstructure:"language"`
	Timeout        time.Duration `mapstructure:"timeout"`
	LastDigitWins  bool          `mapstructure:"last_digit_wins"`
	// MaxInflight 同时运行的识别上限，包括超时后仍未结束的识别，只在启动时读取
	MaxInflight int `mapstructure:"max_inflight"`
}

// Load 从 YAML 文件和环境变量加载配置。文件不存在时只使用默认值和环境变量。
func Load(configPath string) (*Config, error) {
	v := newViper(configPath)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return unmarshal(v)
}

// New 使用默认配置路径加载配置，SUDOKU_CONFIG 可覆盖路径。
// 配置文件无法解析时返回只含默认值和环境变量的配置，同时返回解析错误。
func New() (*Config, error) {
	path := Path()
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}

	fallback, ferr := unmarshal(newViper(path))
	if ferr != nil {
		return getDefaultConfig(), err
	}
	return fallback, err
}

// Path 返回当前使用的配置文件路径
func Path() string {
	if p := os.Getenv(envPrefix + "_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}

// Watch 监听配置文件变更并回调 onChange，解析失败时回调 onError，旧配置保持生效
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	v := newViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// viper 读取失败时保留旧值并照常回调，这里重新加载一次以发现错误
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := Load(configPath)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8000")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)

	v.SetDefault("upload.max_size", 10*1024*1024)
	v.SetDefault("upload.upload_dir", "./uploads")
	v.SetDefault("upload.allowed_types", []string{})
	v.SetDefault("upload.cleanup", true)

	v.SetDefault("extractor.max_concurrent", 3)
	v.SetDefault("extractor.queue_timeout", 30*time.Second)
	v.SetDefault("extractor.cell_size", 50)

	v.SetDefault("ocr.tessdata_prefix", "")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.timeout", 2*time.Second)
	v.SetDefault("ocr.last_digit_wins", true)
	v.SetDefault("ocr.max_inflight", 6)
}

func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         ":8000",
			Mode:         "debug",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			TTL:     24 * time.Hour,
		},
		Upload: UploadConfig{
			MaxSize:   10 * 1024 * 1024,
			UploadDir: "./uploads",
			Cleanup:   true,
		},
		Extractor: ExtractorConfig{
			MaxConcurrent: 3,
			QueueTimeout:  30 * time.Second,
			CellSize:      50,
		},
		OCR: OCRConfig{
			Language:      "eng",
			Timeout:       2 * time.Second,
			LastDigitWins: true,
			MaxInflight:   6,
		},
	}
}
