package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type SeedAdmin struct {
	Username string `yaml:"username"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role" env-default:"Admin"`
	Password string `yaml:"password"`
}

type Config struct {
	Env    string `yaml:"env" env-default:"local"`
	Listen struct {
		BindIP string `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port   string `yaml:"port" env-default:"3000"`
		// CORS origins; "*" allows any.
		AllowedOrigins []string `yaml:"allowed_origins" env-default:"*"`
	} `yaml:"listen"`
	Mongo struct {
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env-default:""`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
		Database string `yaml:"database" env-default:"source_code_hub"`
	} `yaml:"mongo"`
	Redis struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Addr     string `yaml:"addr" env-default:"127.0.0.1:6379"`
		Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
		DB       int    `yaml:"db" env-default:"0"`
	} `yaml:"redis"`
	Nats struct {
		Enabled bool   `yaml:"enabled" env-default:"false"`
		URL     string `yaml:"url" env-default:"nats://127.0.0.1:4222"`
		Subject string `yaml:"subject" env-default:"sourcehub.events"`
		Token   string `yaml:"token" env:"NATS_TOKEN" env-default:""`
	} `yaml:"nats"`
	Files struct {
		// Backend is "gridfs" or "minio".
		Backend    string        `yaml:"backend" env-default:"gridfs"`
		SignSecret string        `yaml:"sign_secret" env:"FILES_SIGN_SECRET" env-default:"change-me"`
		URLTTL     time.Duration `yaml:"url_ttl" env-default:"0s"`
	} `yaml:"files"`
	Minio struct {
		Endpoint  string `yaml:"endpoint" env-default:"127.0.0.1:9000"`
		AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY" env-default:""`
		SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY" env-default:""`
		Bucket    string `yaml:"bucket" env-default:"source-code-hub"`
		UseSSL    bool   `yaml:"use_ssl" env-default:"false"`
		PublicURL string `yaml:"public_url" env-default:""`
	} `yaml:"minio"`
	Auth struct {
		JwtSecret string        `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"change-me"`
		TokenTTL  time.Duration `yaml:"token_ttl" env-default:"24h"`
	} `yaml:"auth"`
	AutoReply struct {
		Enabled       bool          `yaml:"enabled" env-default:"true"`
		GreetingDelay time.Duration `yaml:"greeting_delay" env-default:"2s"`
		FollowUpDelay time.Duration `yaml:"follow_up_delay" env-default:"1500ms"`
		Coalesce      bool          `yaml:"coalesce" env-default:"false"`
		Greetings     []string      `yaml:"greetings"`
		FollowUps     []string      `yaml:"follow_ups"`
	} `yaml:"auto_reply"`
	Likes struct {
		DedupTTL time.Duration `yaml:"dedup_ttl" env-default:"24h"`
	} `yaml:"likes"`
	RateLimit struct {
		Requests int           `yaml:"requests" env-default:"100"`
		Window   time.Duration `yaml:"window" env-default:"15m"`
	} `yaml:"rate_limit"`
	Telegram struct {
		Enabled bool   `yaml:"enabled" env-default:"false"`
		ApiKey  string `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
		AdminId int64  `yaml:"admin_id" env-default:"0"`
	} `yaml:"telegram"`
	Admins []SeedAdmin `yaml:"admins"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("%s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
