package configs

// Mongo holds configuration for connecting to the MongoDB instance that
// stores session documents. URI is a full connection string accepted by
// the official driver.
type Mongo struct {
	URI      string `env:"URI" envDefault:"mongodb://localhost:27017"`
	Database string `env:"DATABASE" envDefault:"adtech"`
}
