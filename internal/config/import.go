package config

type Import struct {
	BatchSize int `env:"IMPORT_BATCH_SIZE" envDefault:"100"`
}
