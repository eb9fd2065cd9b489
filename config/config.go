package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ENV_FILE = ".env"
const CONFIG_FILE = "config.yaml"

const (
	CacheStoreMemory = "memory"
	CacheStoreMongo  = "mongo"
	CacheStoreSQLite = "sqlite"
)

type AppConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
	Cache   CacheConfig   `yaml:"cache"`
	Events  EventsConfig  `yaml:"events"`
	UI      UIConfig      `yaml:"ui"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type ServerConfig struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// BackendConfig 는 채팅 기록을 보관하는 외부 챗봇 백엔드 연결 설정이다.
type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`

	// ProbeInterval 은 온라인/오프라인 판정을 위한 백엔드 점검 주기이다.
	// 0 이하면 점검하지 않는다.
	ProbeInterval time.Duration `yaml:"probe_interval"`
	ProbeUserID   string        `yaml:"probe_user_id"`
}

// CacheConfig 는 오프라인 캐시 워커 설정이다.
// Name 은 버전 태그 역할을 하며, 에셋 목록이 바뀌면 올려야 한다.
type CacheConfig struct {
	Name         string   `yaml:"name"`
	Store        string   `yaml:"store"`
	MongoURI     string   `yaml:"mongo_uri"`
	MongoDBName  string   `yaml:"mongo_db"`
	SQLitePath   string   `yaml:"sqlite_path"`
	AssetBaseURL string   `yaml:"asset_base_url"`
	Assets       []string `yaml:"assets"`
}

type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Brokers string `yaml:"brokers"`
	Topic   string `yaml:"topic"`
}

type UIConfig struct {
	Title              string `yaml:"title"`
	MobileBreakpointPx int    `yaml:"mobile_breakpoint_px"`
	// SanitizeHTML 이 비어 있으면 켜진 것으로 본다. 끄려면 false 를 명시한다.
	SanitizeHTML  *bool  `yaml:"sanitize_html"`
	StylesheetURL string `yaml:"stylesheet_url"`
	IconURL       string `yaml:"icon_url"`
}

// Sanitize reports whether formatted message HTML goes through the sanitizer.
func (u UIConfig) Sanitize() bool {
	return u.SanitizeHTML == nil || *u.SanitizeHTML
}

var (
	mu     sync.Mutex
	config *AppConfig
)

// InitApp loads .env and config.yaml, applies env overrides and defaults, and validates the result.
func InitApp() {
	// load environment variables
	_ = godotenv.Load(filepath.Join(GetBasePath(), ENV_FILE))

	// load configuration file
	var c AppConfig
	data, err := os.ReadFile(filepath.Join(GetBasePath(), CONFIG_FILE))
	if err == nil {
		if err := yaml.Unmarshal(data, &c); err != nil {
			panic(err)
		}
	} else if !os.IsNotExist(err) {
		panic(err)
	}

	applyEnv(&c)
	applyDefaults(&c)
	if err := c.Validate(); err != nil {
		panic(fmt.Errorf("invalid %s: %w", CONFIG_FILE, err))
	}

	mu.Lock()
	config = &c
	mu.Unlock()
}

// Parse decodes a YAML document into a defaulted, validated AppConfig without touching globals.
func Parse(data []byte) (AppConfig, error) {
	var c AppConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return AppConfig{}, err
	}
	applyDefaults(&c)
	if err := c.Validate(); err != nil {
		return AppConfig{}, err
	}
	return c, nil
}

func GetConfig() AppConfig {
	mu.Lock()
	loaded := config != nil
	mu.Unlock()
	if !loaded {
		InitApp()
	}

	mu.Lock()
	defer mu.Unlock()
	return *config
}

// Validate checks the fields the viewer cannot start without.
func (c AppConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Backend),
		validation.Field(&c.Cache),
		validation.Field(&c.Events),
		validation.Field(&c.UI),
	)
}

func (b BackendConfig) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.BaseURL, validation.Required),
		validation.Field(&b.Timeout, validation.Min(time.Duration(0))),
	)
}

func (c CacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Store, validation.In(CacheStoreMemory, CacheStoreMongo, CacheStoreSQLite)),
		validation.Field(&c.MongoURI, validation.When(c.Store == CacheStoreMongo, validation.Required)),
		validation.Field(&c.SQLitePath, validation.When(c.Store == CacheStoreSQLite, validation.Required)),
	)
}

func (e EventsConfig) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Brokers, validation.When(e.Enabled, validation.Required)),
		validation.Field(&e.Topic, validation.When(e.Enabled, validation.Required)),
	)
}

func (u UIConfig) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.MobileBreakpointPx, validation.Min(0)),
	)
}

func applyEnv(c *AppConfig) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("BACKEND_BASE_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.Cache.MongoURI = v
	}
	if v := os.Getenv("KAFKA_BOOTSTRAP_SERVERS"); v != "" {
		c.Events.Brokers = v
	}
}

func applyDefaults(c *AppConfig) {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://localhost:8000"
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 5 * time.Minute
	}
	if c.Cache.Name == "" {
		c.Cache.Name = "chat-viewer-v1"
	}
	if c.Cache.Store == "" {
		c.Cache.Store = CacheStoreMemory
	}
	if c.Cache.MongoDBName == "" {
		c.Cache.MongoDBName = "chatviewer"
	}
	if c.Events.Topic == "" {
		c.Events.Topic = "chat-viewer.message.events"
	}
	if c.UI.Title == "" {
		c.UI.Title = "Chat Viewer"
	}
	if c.UI.MobileBreakpointPx == 0 {
		c.UI.MobileBreakpointPx = 768
	}
	if c.UI.StylesheetURL == "" {
		c.UI.StylesheetURL = "https://cdn.jsdelivr.net/npm/bootstrap@5.1.3/dist/css/bootstrap.min.css"
	}
	if c.UI.SanitizeHTML == nil {
		on := true
		c.UI.SanitizeHTML = &on
	}
	if c.UI.IconURL == "" {
		c.UI.IconURL = "https://cdn.jsdelivr.net/npm/bootstrap-icons@1.11.3/icons/chat-dots.svg"
	}
	if len(c.Cache.Assets) == 0 {
		c.Cache.Assets = []string{c.UI.StylesheetURL, c.UI.IconURL}
	}
}

func GetBasePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		cfgPath := filepath.Join(dir, CONFIG_FILE)
		if info, err := os.Stat(cfgPath); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
