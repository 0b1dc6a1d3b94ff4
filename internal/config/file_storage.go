package config

// StorageConfig selects where product images live: local, aws or gcp.
type StorageConfig struct {
	Provider string              `yaml:"provider"`
	Local    *LocalStorageConfig `yaml:"local"`
	AWS      *AWSStorageConfig   `yaml:"aws"`
	GCP      *GCPStorageConfig   `yaml:"gcp"`
}

type LocalStorageConfig struct {
	BasePath string `yaml:"base_path"`
	BaseURL  string `yaml:"base_url"`
}

type AWSStorageConfig struct {
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	CDNDomain string `yaml:"cdn_domain"`
}

type GCPStorageConfig struct {
	Bucket          string `yaml:"bucket"`
	CredentialsFile string `yaml:"credentials_file"`
	CDNDomain       string `yaml:"cdn_domain"`
}

func loadStorageConfig() *StorageConfig {
	return &StorageConfig{
		Provider: getEnv("STORAGE_PROVIDER", "local"),
		Local: &LocalStorageConfig{
			BasePath: getEnv("STORAGE_LOCAL_PATH", "./uploads"),
			BaseURL:  getEnv("STORAGE_LOCAL_URL", "http://localhost:8080/uploads"),
		},
		AWS: &AWSStorageConfig{
			Region:    getEnv("PRODUCT_IMAGES_S3_REGION", getEnv("AWS_REGION", "us-east-1")),
			Bucket:    getEnv("PRODUCT_IMAGES_S3_BUCKET", ""),
			CDNDomain: getEnv("PRODUCT_IMAGES_CDN_DOMAIN", ""),
		},
		GCP: &GCPStorageConfig{
			Bucket:          getEnv("PRODUCT_IMAGES_GCS_BUCKET", ""),
			CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			CDNDomain:       getEnv("PRODUCT_IMAGES_CDN_DOMAIN", ""),
		},
	}
}
