package config

import (
	"fmt"
	"strings"
)

type BlobDriver uint8

const (
	BlobDriverS3 BlobDriver = iota
	BlobDriverMemory
)

func (d BlobDriver) String() string {
	return []string{"S3", "MEMORY"}[d]
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *BlobDriver) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "S3":
		*d = BlobDriverS3
	case "MEMORY":
		*d = BlobDriverMemory
	default:
		return fmt.Errorf("unknown blob driver: %s", text)
	}
	return nil
}

type Blob struct {
	Driver          BlobDriver `env:"BLOB_DRIVER" envDefault:"s3"`
	Bucket          string     `env:"BLOB_BUCKET"`
	Prefix          string     `env:"BLOB_PREFIX"`
	Region          string     `env:"BLOB_REGION" envDefault:"us-east-1"`
	Endpoint        string     `env:"BLOB_ENDPOINT"`
	AccessKeyID     string     `env:"BLOB_ACCESS_KEY_ID"`
	SecretAccessKey string     `env:"BLOB_SECRET_ACCESS_KEY"`
	ForcePathStyle  bool       `env:"BLOB_FORCE_PATH_STYLE"`
}
