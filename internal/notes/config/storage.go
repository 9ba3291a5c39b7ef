package config

// Драйверы хранилища.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// StorageConfig выбирает реализацию хранилища.
type StorageConfig struct {
	Driver string `yaml:"driver" env:"NOTES_STORAGE_DRIVER" env-default:"postgres"`
}

// IsMemory сообщает, выбрано ли хранилище в памяти.
func (s *StorageConfig) IsMemory() bool {
	return s.Driver == StorageDriverMemory
}
