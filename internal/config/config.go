package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	Database    Database
	Auth        Auth
	Order       Order   `envPrefix:"ORDER_"`
	Cart        Cart    `envPrefix:"CART_"`
	Payment     Payment `envPrefix:"PAYMENT_"`
	BaseURL     string  `env:"BASE_URL" envDefault:"http://localhost:8080"`
	SeedDemo    bool    `env:"SEED_DEMO_DATA" envDefault:"false"`

	Paypal    Paypal    `envPrefix:"PAYPAL_"`
	BrainTree Braintree `envPrefix:"BRAINTREE_"`
	GrabPay   GrabPay   `envPrefix:"GRABPAY_"`
	Stripe    Stripe    `envPrefix:"STRIPE_"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

func (e Environment) IsProduction() bool {
	return e.Name == "production"
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host      string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port      string `env:"HTTP_PORT" envDefault:"8080"`
	APIPrefix string `env:"API_PREFIX" envDefault:"/api/v1"`
}

type Database struct {
	Driver       string        `env:"DB_DRIVER" envDefault:"sqlite"` // mysql, sqlite
	URL          string        `env:"DATABASE_URL" envDefault:"foodcourt.db"`
	MaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"50"`
	ConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type Order struct {
	DefaultTaxRate    string        `env:"DEFAULT_TAX_RATE" envDefault:"0.06"`
	IdempotencyWindow time.Duration `env:"IDEMPOTENCY_WINDOW" envDefault:"24h"`
	NumberPrefix      string        `env:"NO_PREFIX" envDefault:"FOOD"`
}

type Cart struct {
	TTL      time.Duration `env:"TTL" envDefault:"24h"`
	MaxItems int           `env:"MAX_ITEMS" envDefault:"50"`
}

type Payment struct {
	Currency         string  `env:"CURRENCY" envDefault:"MYR"`
	WebhookSecret    string  `env:"WEBHOOK_SECRET"`
	RequireSignature bool    `env:"REQUIRE_SIGNATURE" envDefault:"true"`
	WebhookRate      float64 `env:"WEBHOOK_RATE" envDefault:"20"`
}

type Paypal struct {
	BaseApiURL   string `env:"BASE_API_URL"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	WebhookID    string `env:"WEBHOOK_ID"`
}

func (p Paypal) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

type Braintree struct {
	Environment string `env:"ENVIRONMENT"`
	MerchantID  string `env:"MERCHANT_ID"`
	PublicKey   string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`
}

func (b Braintree) Enabled() bool {
	return b.MerchantID != "" && b.PrivateKey != ""
}

type GrabPay struct {
	BaseApiURL    string `env:"BASE_API_URL" envDefault:"https://openapi.grab.com"`
	MerchantID    string `env:"MERCHANT_ID"`
	ClientID      string `env:"CLIENT_ID"`
	ClientSecret  string `env:"CLIENT_SECRET"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	RedirectURL   string `env:"REDIRECT_URL"`
}

func (g GrabPay) Enabled() bool {
	return g.MerchantID != ""
}

type Stripe struct {
	BaseApiURL    string `env:"BASE_API_URL" envDefault:"https://api.stripe.com"`
	SecretKey     string `env:"SECRET_KEY"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
}

func (s Stripe) Enabled() bool {
	return s.SecretKey != ""
}
