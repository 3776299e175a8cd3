package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	DatabaseURL         string
	RedisURL            string
	CommissionRate      float64 // markup applied once when a listing is accepted (default 0.20)
	Currency            string  // settlement currency (default EUR)
	AntiquarianGroup    string
	AdminGroup          string
	PaypalClientID      string
	PaypalClientSecret  string
	PaypalMode          string // "sandbox" or "live"
	PaymentSuccessURL   string
	PaymentCancelURL    string
	SendinblueAPIKey    string // SENDINBLUE_API_KEY for transactional emails (Brevo)
	MailFrom            string // MAIL_FROM sender email (default info@anticairapp.sixela.be)
	FrontendURLEndsWith string
	DevPassword         string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = viper.GetString("DATABASE_URL")
	}

	rate := viper.GetFloat64("COMMISSION_RATE")
	if rate <= 0 {
		rate = 0.20
	}

	return &Config{
		Env:                 env,
		Port:                port,
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		CommissionRate:      rate,
		Currency:            withDefault(viper.GetString("SETTLEMENT_CURRENCY"), "EUR"),
		AntiquarianGroup:    withDefault(viper.GetString("ANTIQUARIAN_GROUP"), "Antiquarian"),
		AdminGroup:          withDefault(viper.GetString("ADMIN_GROUP"), "Admin"),
		PaypalClientID:      viper.GetString("PAYPAL_CLIENT_ID"),
		PaypalClientSecret:  viper.GetString("PAYPAL_CLIENT_SECRET"),
		PaypalMode:          withDefault(viper.GetString("PAYPAL_MODE"), "sandbox"),
		PaymentSuccessURL:   withDefault(viper.GetString("PAYMENT_SUCCESS_URL"), "http://localhost:4200/payment/success"),
		PaymentCancelURL:    withDefault(viper.GetString("PAYMENT_CANCEL_URL"), "http://localhost:4200/payment/error"),
		SendinblueAPIKey:    viper.GetString("SENDINBLUE_API_KEY"),
		MailFrom:            withDefault(viper.GetString("MAIL_FROM"), "info@anticairapp.sixela.be"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
	}, nil
}

func withDefault(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}
