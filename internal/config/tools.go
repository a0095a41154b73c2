package config

// NotifierConfig is the subset of settings the notifier binary needs.  It
// does not touch MySQL, so none of the DB_* variables are required.
type NotifierConfig struct {
	RabbitMQURL string
	OrderQueue  string
	Prefetch    int
	LogLevel    string
	LogJSON     bool
}

func LoadNotifier() NotifierConfig {
	return NotifierConfig{
		RabbitMQURL: rabbitURL(),
		OrderQueue:  envStr("ORDER_QUEUE", "order.placed"),
		Prefetch:    envInt("ORDER_QUEUE_PREFETCH", 50),
		LogLevel:    envStr("LOG_LEVEL", "info"),
		LogJSON:     envBool("LOG_JSON", false),
	}
}

// DBConfig holds the MySQL connection settings alone, for tools that do
// not run the HTTP server.
type DBConfig struct {
	User, Pass, Host, Port, Name string
}

func LoadDB() DBConfig {
	return DBConfig{
		User: must("DB_USER"),
		Pass: envStr("DB_PASS", ""),
		Host: must("DB_HOST"),
		Port: must("DB_PORT"),
		Name: must("DB_NAME"),
	}
}

// BcryptCost reads BCRYPT_COST, default 12.
func BcryptCost() int { return envInt("BCRYPT_COST", 12) }
