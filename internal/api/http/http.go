package http

type Config struct {
	Port           uint     `mapstructure:"port" validate:"required"`
	AdminAPIKey    string   `mapstructure:"admin_api_key"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}
