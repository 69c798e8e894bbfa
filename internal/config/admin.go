package config

// Admin holds the operator credentials for the /admin routes.
// PasswordHash is a bcrypt hash; generate it with `htpasswd -bnBC 10 "" <password>`.
type Admin struct {
	Username     string `env:"ADMIN_USERNAME" envDefault:"admin"`
	PasswordHash string `env:"ADMIN_PASSWORD_HASH,required"`
}
