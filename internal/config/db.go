package config

// Supported database engines.
const (
	DBEngineMySQL    = "mysql"
	DBEnginePostgres = "postgres"
	DBEngineSQLite   = "sqlite"
)

// DB holds the database configuration settings.
// Engine selects the gorm driver: mysql, postgres or sqlite.
// For sqlite only Name is used (the database file path).
type DB struct {
	Engine   string
	Extras   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}
