package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultFromEmail = "no-reply@scibridge.local"

type (
	Config struct {
		AppName      string
		Env          string
		Build        string
		Debug        bool
		TestMode     bool
		SecretKey    string
		DataDir      string
		StoreDriver  string // "file" or "memory"
		LogLevel     string
		RollbarToken string

		Server   ServerConfig
		Mail     MailConfig
		Security SecurityConfig
	}

	ServerConfig struct {
		Host                string
		Port                string
		FrontendBaseURL     string
		AllowedOrigins      []string
		TrustIdentityHeader bool
		BodyLimit           string
		JWTExpiration       time.Duration
		ShutdownTimeout     time.Duration
	}

	MailConfig struct {
		Host           string
		Port           int
		Secure         bool
		User           string
		Password       string
		From           string
		SubjectPrefix  string
		SendgridAPIKey string
		Timeout        time.Duration
	}

	SecurityConfig struct {
		BcryptCost          int
		VerificationCodeTTL time.Duration // 0 disables expiry
		ResendCooldown      time.Duration
	}
)

// Address returns the host:port pair the HTTP server listens on.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// Configured reports whether every SMTP credential is present.
func (m MailConfig) Configured() bool {
	return m.Host != "" && m.Port != 0 && m.User != "" && m.Password != ""
}

// Address returns the SMTP host:port pair.
func (m MailConfig) Address() string {
	return net.JoinHostPort(m.Host, fmt.Sprint(m.Port))
}

// FromAddress parses the configured sender, falling back to the SMTP user and then to a local no-reply address.
func (m MailConfig) FromAddress() mail.Address {
	from := m.From
	if from == "" {
		from = m.User
	}
	if from == "" {
		from = defaultFromEmail
	}
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return mail.Address{Address: from}
	}
	return *addr
}

// NewConfig loads the configuration from the environment, reading `.env` files first when present.
func NewConfig() *Config {
	env := strings.ToLower(os.Getenv("ENV")) // dev (default), test, qa, prod
	if env == "" {
		env = "dev"
	}
	loadDotEnv(".env." + env)
	loadDotEnv(".env")

	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("appName", "SciBridge Forum")
	v.SetDefault("debug", env == "dev" || env == "test")
	v.SetDefault("testMode", env == "test")
	v.SetDefault("secretKey", "k2#9vq!xh7@scibridge-dev-only-secret$4mz")
	v.SetDefault("dataDir", "data")
	v.SetDefault("storeDriver", "file")
	v.SetDefault("logLevel", "info")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("build", "dev")

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "4000")
	v.SetDefault("server.corsOrigin", "http://localhost:5173")
	v.SetDefault("server.frontendBaseURL", "http://localhost:5173")
	v.SetDefault("server.trustIdentityHeader", true)
	v.SetDefault("server.bodyLimit", "1M")
	v.SetDefault("server.jwtExpiration", 24*time.Hour)
	v.SetDefault("server.shutdownTimeout", 10*time.Second)

	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 0)
	v.SetDefault("mail.secure", false)
	v.SetDefault("mail.user", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.subjectPrefix", "")
	v.SetDefault("mail.sendgridAPIKey", "")
	v.SetDefault("mail.timeout", 10*time.Second)

	v.SetDefault("security.bcryptCost", 10)
	v.SetDefault("security.verificationCodeTTL", 24*time.Hour)
	v.SetDefault("security.resendCooldown", time.Minute)

	for key, envVar := range map[string]string{
		"debug":                        "DEBUG",
		"secretKey":                    "SECRET_KEY",
		"dataDir":                      "DATA_DIR",
		"storeDriver":                  "STORE_DRIVER",
		"logLevel":                     "LOG_LEVEL",
		"rollbarToken":                 "ROLLBAR_TOKEN",
		"build":                        "BUILD",
		"server.host":                  "HOST",
		"server.port":                  "PORT",
		"server.corsOrigin":            "CORS_ORIGIN",
		"server.frontendBaseURL":       "FRONTEND_BASE_URL",
		"server.trustIdentityHeader":   "TRUST_IDENTITY_HEADER",
		"server.jwtExpiration":         "JWT_EXPIRATION",
		"mail.host":                    "SMTP_HOST",
		"mail.port":                    "SMTP_PORT",
		"mail.secure":                  "SMTP_SECURE",
		"mail.user":                    "SMTP_USER",
		"mail.password":                "SMTP_PASSWORD",
		"mail.from":                    "MAIL_FROM",
		"mail.subjectPrefix":           "MAIL_SUBJECT_PREFIX",
		"mail.sendgridAPIKey":          "SENDGRID_API_KEY",
		"security.bcryptCost":          "BCRYPT_COST",
		"security.verificationCodeTTL": "VERIFICATION_CODE_TTL",
		"security.resendCooldown":      "RESEND_COOLDOWN",
	} {
		if err := v.BindEnv(key, envVar); err != nil {
			log.Fatalf("config.BindEnv(%s): %v", key, err)
		}
	}

	return &Config{
		AppName:      v.GetString("appName"),
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		SecretKey:    v.GetString("secretKey"),
		DataDir:      v.GetString("dataDir"),
		StoreDriver:  CleanString(v.GetString("storeDriver"), true),
		LogLevel:     CleanString(v.GetString("logLevel"), true),
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:                v.GetString("server.host"),
			Port:                v.GetString("server.port"),
			FrontendBaseURL:     v.GetString("server.frontendBaseURL"),
			AllowedOrigins:      splitList(v.GetString("server.corsOrigin")),
			TrustIdentityHeader: v.GetBool("server.trustIdentityHeader"),
			BodyLimit:           v.GetString("server.bodyLimit"),
			JWTExpiration:       v.GetDuration("server.jwtExpiration"),
			ShutdownTimeout:     v.GetDuration("server.shutdownTimeout"),
		},
		Mail: MailConfig{
			Host:           v.GetString("mail.host"),
			Port:           v.GetInt("mail.port"),
			Secure:         v.GetBool("mail.secure"),
			User:           v.GetString("mail.user"),
			Password:       v.GetString("mail.password"),
			From:           v.GetString("mail.from"),
			SubjectPrefix:  v.GetString("mail.subjectPrefix"),
			SendgridAPIKey: v.GetString("mail.sendgridAPIKey"),
			Timeout:        v.GetDuration("mail.timeout"),
		},
		Security: SecurityConfig{
			BcryptCost:          v.GetInt("security.bcryptCost"),
			VerificationCodeTTL: v.GetDuration("security.verificationCodeTTL"),
			ResendCooldown:      v.GetDuration("security.resendCooldown"),
		},
	}
}

// loadDotEnv loads `path` if it exists; variables already set in the environment win.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err == nil {
		if err := godotenv.Load(path); err != nil {
			log.Fatalf("config.godotenv(%s): %v", path, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", path, err)
	}
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = CleanString(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
