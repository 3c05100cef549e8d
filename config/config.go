package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type DBConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

type Config struct {
	WhatsApp struct {
		Token         string
		PhoneNumberID string
		VerifyToken   string
		APIVersion    string
	}
	DB     DBConfig
	OpenAI struct {
		APIKey          string
		Model           string
		TranscribeModel string
	}
	Stripe struct {
		SecretKey  string
		SuccessURL string
		CancelURL  string
	}
	Payment struct {
		// Static invoice link base used when Stripe is not configured.
		LinkBase string
	}
	Menu struct {
		Path     string
		ImageURL string
	}
	Business struct {
		Currency      string
		VATPercent    float64
		BranchName    string
		BranchPhone   string
		BranchAddress string
		OpeningHours  map[string]string
	}
	Feedback struct {
		Delay        time.Duration
		PollInterval time.Duration
	}
	Server struct {
		Port string
	}
	ShutdownTimeout time.Duration
}

// Load loads the configuration
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("ShutdownTimeout", 10*time.Second)
	v.SetDefault("Server.Port", "8080")
	v.SetDefault("WhatsApp.APIVersion", "v19.0")
	v.SetDefault("OpenAI.Model", "gpt-4o-mini")
	v.SetDefault("OpenAI.TranscribeModel", "whisper-1")
	v.SetDefault("DB.MaxOpenConns", 20)
	v.SetDefault("DB.MaxIdleConns", 10)
	v.SetDefault("DB.ConnLifetime", 5*time.Minute)
	v.SetDefault("Menu.Path", "static/Menu.xlsx")
	v.SetDefault("Payment.LinkBase", "https://pay.example.com/invoice?id=")
	v.SetDefault("Business.Currency", "SAR")
	v.SetDefault("Business.VATPercent", 15.0)
	v.SetDefault("Feedback.Delay", 45*time.Minute)
	v.SetDefault("Feedback.PollInterval", time.Minute)

	v.AutomaticEnv()

	// Config file is optional: a pure-env deployment is the common case on
	// small hosts, same as the original bot.
	if err := v.ReadInConfig(); err != nil {
		cfg := &Config{}
		cfg.WhatsApp.Token = os.Getenv("WHATSAPP_TOKEN")
		cfg.WhatsApp.PhoneNumberID = os.Getenv("WHATSAPP_PHONE_NUMBER_ID")
		cfg.WhatsApp.VerifyToken = os.Getenv("WHATSAPP_VERIFY_TOKEN")
		cfg.WhatsApp.APIVersion = getEnvOr("WHATSAPP_API_VERSION", "v19.0")
		cfg.DB.Host = getEnvOr("DB_HOST", "localhost")
		cfg.DB.Port = getEnvOr("DB_PORT", "5432")
		cfg.DB.User = getEnvOr("DB_USER", "postgres")
		cfg.DB.Password = getEnvOr("DB_PASSWORD", "postgres")
		cfg.DB.DBName = getEnvOr("DB_NAME", "joana_bot")
		cfg.DB.SSLMode = getEnvOr("DB_SSL_MODE", "disable")
		cfg.DB.MaxOpenConns = 20
		cfg.DB.MaxIdleConns = 10
		cfg.DB.ConnLifetime = 5 * time.Minute
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
		cfg.OpenAI.Model = getEnvOr("OPENAI_MODEL", "gpt-4o-mini")
		cfg.OpenAI.TranscribeModel = getEnvOr("OPENAI_TRANSCRIBE_MODEL", "whisper-1")
		cfg.Stripe.SecretKey = os.Getenv("STRIPE_SECRET_KEY")
		cfg.Stripe.SuccessURL = os.Getenv("STRIPE_SUCCESS_URL")
		cfg.Stripe.CancelURL = os.Getenv("STRIPE_CANCEL_URL")
		cfg.Payment.LinkBase = getEnvOr("PAY_URL_BASE", "https://pay.example.com/invoice?id=")
		cfg.Menu.Path = getEnvOr("MENU_PATH", "static/Menu.xlsx")
		cfg.Menu.ImageURL = os.Getenv("MENU_IMAGE_URL")
		cfg.Business.Currency = getEnvOr("CURRENCY", "SAR")
		cfg.Business.VATPercent = 15.0
		cfg.Business.BranchName = getEnvOr("BRANCH_NAME", "Joana Fast Food")
		cfg.Business.BranchPhone = os.Getenv("BRANCH_PHONE")
		cfg.Business.BranchAddress = os.Getenv("BRANCH_ADDRESS")
		cfg.Business.OpeningHours = defaultOpeningHours()
		cfg.Feedback.Delay = 45 * time.Minute
		cfg.Feedback.PollInterval = time.Minute
		cfg.Server.Port = getEnvOr("SERVER_PORT", "8080")
		cfg.ShutdownTimeout = 10 * time.Second
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if cfg.Business.OpeningHours == nil {
		cfg.Business.OpeningHours = defaultOpeningHours()
	}
	return &cfg, nil
}

// defaultOpeningHours mirrors the branch schedule: open daily, later start on Friday.
func defaultOpeningHours() map[string]string {
	return map[string]string{
		"mon": "11:00-23:59",
		"tue": "11:00-23:59",
		"wed": "11:00-23:59",
		"thu": "11:00-23:59",
		"fri": "13:00-23:59",
		"sat": "11:00-23:59",
		"sun": "11:00-23:59",
	}
}

// Helper function to get environment variable with default value
func getEnvOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
