package config

import (
	"errors"
	"fmt"
	"strings"

	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. KOKOROTTS_TTS_VOICE.
const EnvPrefix = "KOKOROTTS"

type Config struct {
	Paths     PathsConfig   `mapstructure:"paths"`
	Runtime   RuntimeConfig `mapstructure:"runtime"`
	Server    ServerConfig  `mapstructure:"server"`
	TTS       TTSConfig     `mapstructure:"tts"`
	LogLevel  string        `mapstructure:"log_level"`
	LogFormat string        `mapstructure:"log_format"`
}

type PathsConfig struct {
	ModelPath  string `mapstructure:"model_path"`
	VoicesPath string `mapstructure:"voices_path"`
}

type RuntimeConfig struct {
	Threads        int    `mapstructure:"threads"`
	ORTLibraryPath string `mapstructure:"ort_library_path"`
	ORTVersion     string `mapstructure:"ort_version"`
	ORTAPIVersion  int    `mapstructure:"ort_api_version"`
	InputIDsName   string `mapstructure:"input_ids_name"`
	StyleName      string `mapstructure:"style_name"`
	SpeedName      string `mapstructure:"speed_name"`
	OutputName     string `mapstructure:"output_name"`
}

type ServerConfig struct {
	ListenAddr      string  `mapstructure:"listen_addr"`
	MaxTextBytes    int     `mapstructure:"max_text_bytes"`
	Workers         int     `mapstructure:"workers"`
	RequestTimeout  int     `mapstructure:"request_timeout"`
	WriteTimeout    int     `mapstructure:"write_timeout"`
	ShutdownTimeout int     `mapstructure:"shutdown_timeout"`
	RateLimit       float64 `mapstructure:"rate_limit"`
	RateBurst       int     `mapstructure:"rate_burst"`
}

type TTSConfig struct {
	Voice      string  `mapstructure:"voice"`
	Speed      float64 `mapstructure:"speed"`
	Language   string  `mapstructure:"language"`
	EspeakPath string  `mapstructure:"espeak_path"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
	// SearchPaths overrides the directories searched for kokorotts.{yaml,toml,json}
	// when ConfigFile is empty. Nil means the working directory plus the
	// per-user config directory.
	SearchPaths []string
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			ModelPath:  "models/kokoro-v1.0.onnx",
			VoicesPath: "models/voices",
		},
		Runtime: RuntimeConfig{
			Threads:        4,
			ORTAPIVersion:  23,
			InputIDsName:   "input_ids",
			StyleName:      "style",
			SpeedName:      "speed",
			OutputName:     "waveform",
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			MaxTextBytes:    8192,
			Workers:         1,
			RequestTimeout:  120,
			WriteTimeout:    30,
			ShutdownTimeout: 30,
			RateLimit:       0,
			RateBurst:       4,
		},
		TTS: TTSConfig{
			Voice:      "af_nova",
			Speed:      1.0,
			Language:   "en-us",
			EspeakPath: "espeak-ng",
		},
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// flagKeys maps each registered flag name to its config key.
var flagKeys = map[string]string{
	"model":                    "paths.model_path",
	"voices":                   "paths.voices_path",
	"runtime-threads":          "runtime.threads",
	"ort-lib":                  "runtime.ort_library_path",
	"runtime-ort-version":      "runtime.ort_version",
	"runtime-ort-api-version":  "runtime.ort_api_version",
	"runtime-input-ids-name":   "runtime.input_ids_name",
	"runtime-style-name":       "runtime.style_name",
	"runtime-speed-name":       "runtime.speed_name",
	"runtime-output-name":      "runtime.output_name",
	"listen":                   "server.listen_addr",
	"max-text-bytes":           "server.max_text_bytes",
	"workers":                  "server.workers",
	"request-timeout":          "server.request_timeout",
	"write-timeout":            "server.write_timeout",
	"shutdown-timeout":         "server.shutdown_timeout",
	"rate-limit":               "server.rate_limit",
	"rate-burst":               "server.rate_burst",
	"voice":                    "tts.voice",
	"speed":                    "tts.speed",
	"lang":                     "tts.language",
	"espeak-path":              "tts.espeak_path",
	"log-level":                "log_level",
	"log-format":               "log_format",
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("model", defaults.Paths.ModelPath, "Path to the Kokoro ONNX model")
	fs.String("voices", defaults.Paths.VoicesPath, "Voice directory of .bin files or an NPZ voice archive")
	fs.Int("runtime-threads", defaults.Runtime.Threads, "ONNX Runtime intra-op thread count")
	fs.String("ort-lib", defaults.Runtime.ORTLibraryPath, "Path to ONNX Runtime shared library")
	fs.String("runtime-ort-version", defaults.Runtime.ORTVersion, "Expected ONNX Runtime version")
	fs.Int("runtime-ort-api-version", defaults.Runtime.ORTAPIVersion, "ONNX Runtime C API version")
	fs.String("runtime-input-ids-name", defaults.Runtime.InputIDsName, "Model input name for token ids")
	fs.String("runtime-style-name", defaults.Runtime.StyleName, "Model input name for the style vector")
	fs.String("runtime-speed-name", defaults.Runtime.SpeedName, "Model input name for speed")
	fs.String("runtime-output-name", defaults.Runtime.OutputName, "Model output name for the waveform")
	fs.String("listen", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("max-text-bytes", defaults.Server.MaxTextBytes, "Maximum request text size in bytes (0 disables)")
	fs.Int("workers", defaults.Server.Workers, "Concurrent synthesis slots")
	fs.Int("request-timeout", defaults.Server.RequestTimeout, "Per-request synthesis timeout in seconds (0 disables)")
	fs.Int("write-timeout", defaults.Server.WriteTimeout, "Per-write response timeout in seconds (0 disables)")
	fs.Int("shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")
	fs.Float64("rate-limit", defaults.Server.RateLimit, "Requests per second accepted by the server (0 disables)")
	fs.Int("rate-burst", defaults.Server.RateBurst, "Burst size for the request rate limit")
	fs.String("voice", defaults.TTS.Voice, "Voice name")
	fs.Float64("speed", defaults.TTS.Speed, "Speech speed multiplier")
	fs.String("lang", defaults.TTS.Language, "Phonemizer language code")
	fs.String("espeak-path", defaults.TTS.EspeakPath, "espeak-ng executable")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
	fs.String("log-format", defaults.LogFormat, "Log format (json|text)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	if err := v.BindEnv("runtime.ort_library_path", EnvPrefix+"_ORT_LIB", EnvPrefix+"_RUNTIME_ORT_LIBRARY_PATH", "ORT_LIBRARY_PATH"); err != nil {
		return Config{}, fmt.Errorf("bind ort env vars: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("kokorotts")
		for _, dir := range searchPaths(opts.SearchPaths) {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate rejects values no component can run with.
func (c Config) Validate() error {
	var problems []string
	if c.TTS.Speed <= 0 || c.TTS.Speed > 4 {
		problems = append(problems, fmt.Sprintf("tts.speed %.2f outside (0, 4]", c.TTS.Speed))
	}
	if c.Runtime.Threads < 1 {
		problems = append(problems, fmt.Sprintf("runtime.threads %d must be >= 1", c.Runtime.Threads))
	}
	for _, limit := range []struct {
		key string
		n   int
	}{
		{"server.workers", c.Server.Workers},
		{"server.max_text_bytes", c.Server.MaxTextBytes},
		{"server.request_timeout", c.Server.RequestTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
	} {
		if limit.n < 0 {
			problems = append(problems, fmt.Sprintf("%s %d must be >= 0 (0 disables)", limit.key, limit.n))
		}
	}
	if c.Server.RateLimit < 0 {
		problems = append(problems, fmt.Sprintf("server.rate_limit %.2f must be >= 0", c.Server.RateLimit))
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "json", "text":
	default:
		problems = append(problems, fmt.Sprintf("log_format %q (expected json|text)", c.LogFormat))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// UserConfigDir returns the per-user directory searched for kokorotts.yaml.
func UserConfigDir() (string, error) {
	return gap.NewScope(gap.User, "kokorotts").ConfigPath("")
}

func searchPaths(override []string) []string {
	if override != nil {
		return override
	}
	paths := []string{"."}
	if dir, err := UserConfigDir(); err == nil && dir != "" {
		paths = append(paths, dir)
	}
	return paths
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %q: %w", name, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("paths.model_path", c.Paths.ModelPath)
	v.SetDefault("paths.voices_path", c.Paths.VoicesPath)
	v.SetDefault("runtime.threads", c.Runtime.Threads)
	v.SetDefault("runtime.ort_library_path", c.Runtime.ORTLibraryPath)
	v.SetDefault("runtime.ort_version", c.Runtime.ORTVersion)
	v.SetDefault("runtime.ort_api_version", c.Runtime.ORTAPIVersion)
	v.SetDefault("runtime.input_ids_name", c.Runtime.InputIDsName)
	v.SetDefault("runtime.style_name", c.Runtime.StyleName)
	v.SetDefault("runtime.speed_name", c.Runtime.SpeedName)
	v.SetDefault("runtime.output_name", c.Runtime.OutputName)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.write_timeout", c.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("server.rate_limit", c.Server.RateLimit)
	v.SetDefault("server.rate_burst", c.Server.RateBurst)
	v.SetDefault("tts.voice", c.TTS.Voice)
	v.SetDefault("tts.speed", c.TTS.Speed)
	v.SetDefault("tts.language", c.TTS.Language)
	v.SetDefault("tts.espeak_path", c.TTS.EspeakPath)
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("log_format", c.LogFormat)
}
