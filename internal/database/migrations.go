package database

import (
	"log/slog"
	"strings"

	"github.com/BurntSushi/migration"
)

// schema lists one DDL statement per migration; MySQL rejects
// multi-statement Exec without multiStatements=true in the DSN.  Append
// only: the index of each entry is its schema version.
var schema = []string{
	`CREATE TABLE admins (
		id            CHAR(36)     NOT NULL PRIMARY KEY,
		username      VARCHAR(64)  NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		name          VARCHAR(128) NOT NULL DEFAULT '',
		is_active     TINYINT(1)   NOT NULL DEFAULT 1,
		created_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_admins_username (username)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,

	`CREATE TABLE admin_sessions (
		token_hash CHAR(64) NOT NULL PRIMARY KEY,
		admin_id   CHAR(36) NOT NULL,
		expires_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_admin_sessions_expires (expires_at),
		CONSTRAINT fk_admin_sessions_admin FOREIGN KEY (admin_id) REFERENCES admins (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE sellers (
		id              CHAR(36)     NOT NULL PRIMARY KEY,
		alias           VARCHAR(128) NOT NULL,
		location        VARCHAR(128) NOT NULL DEFAULT '',
		age             INT          NOT NULL DEFAULT 0,
		bio             TEXT         NOT NULL,
		commission_rate DECIMAL(5,4) NOT NULL DEFAULT 0.4500,
		is_active       TINYINT(1)   NOT NULL DEFAULT 1,
		created_at      DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE products (
		id           CHAR(36)      NOT NULL PRIMARY KEY,
		seller_id    CHAR(36)      NOT NULL,
		title        VARCHAR(255)  NOT NULL,
		description  TEXT          NOT NULL,
		size         VARCHAR(32)   NOT NULL DEFAULT '',
		color        VARCHAR(64)   NOT NULL DEFAULT '',
		material     VARCHAR(64)   NOT NULL DEFAULT '',
		price_kr     DECIMAL(12,2) NOT NULL,
		image_url    VARCHAR(1024) NOT NULL DEFAULT '',
		is_available TINYINT(1)    NOT NULL DEFAULT 1,
		wear_days    INT           NOT NULL DEFAULT 0,
		created_at   DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_products_seller (seller_id),
		CONSTRAINT fk_products_seller FOREIGN KEY (seller_id) REFERENCES sellers (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE promo_codes (
		id          CHAR(36)      NOT NULL PRIMARY KEY,
		code        VARCHAR(64)   NOT NULL,
		discount_kr DECIMAL(12,2) NOT NULL,
		description VARCHAR(255)  NOT NULL DEFAULT '',
		max_usage   INT           NULL,
		usage_count INT           NOT NULL DEFAULT 0,
		valid_from  DATETIME      NULL,
		valid_until DATETIME      NULL,
		is_active   TINYINT(1)    NOT NULL DEFAULT 1,
		created_at  DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_promo_codes_code (code)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE orders (
		id               CHAR(36)      NOT NULL PRIMARY KEY,
		product_id       CHAR(36)      NOT NULL,
		seller_id        CHAR(36)      NOT NULL,
		customer_name    VARCHAR(255)  NOT NULL,
		customer_email   VARCHAR(255)  NOT NULL,
		shipping_address TEXT          NOT NULL,
		total_amount_kr  DECIMAL(12,2) NOT NULL,
		commission_kr    DECIMAL(12,2) NOT NULL,
		payment_method   VARCHAR(16)   NOT NULL DEFAULT 'pending',
		payment_status   VARCHAR(32)   NOT NULL DEFAULT 'pending',
		status           VARCHAR(16)   NOT NULL DEFAULT 'pending',
		promo_code       VARCHAR(64)   NULL,
		tracking_number  VARCHAR(128)  NULL,
		tracking_url     VARCHAR(1024) NULL,
		crypto_currency  VARCHAR(16)   NULL,
		crypto_amount    VARCHAR(64)   NULL,
		payment_address  VARCHAR(255)  NULL,
		nowpayments_id   VARCHAR(64)   NULL,
		created_at       DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at       DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_orders_status (status),
		KEY idx_orders_created (created_at),
		CONSTRAINT fk_orders_product FOREIGN KEY (product_id) REFERENCES products (id),
		CONSTRAINT fk_orders_seller FOREIGN KEY (seller_id) REFERENCES sellers (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrations turns schema into numbered migrations that log as they run.
func Migrations(log *slog.Logger) []migration.Migrator {
	migs := make([]migration.Migrator, 0, len(schema))
	for i, stmt := range schema {
		migs = append(migs, fromSQL(log, i+1, stmt))
	}
	return migs
}

func fromSQL(log *slog.Logger, version int, stmt string) migration.Migrator {
	return func(tx migration.LimitedTx) error {
		summary := strings.TrimSpace(stmt)
		if nl := strings.IndexAny(summary, "\r\n"); nl != -1 {
			summary = summary[:nl]
		}
		log.Info("running migration", "version", version, "sql", summary)
		_, err := tx.Exec(stmt)
		return err
	}
}
