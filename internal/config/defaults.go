package config

import "time"

const (
	defaultSampleInterval = 300 * time.Second
	defaultSampleDistance = 200.0
	defaultMaxBatchSize   = 500
)

var defaults = map[string]any{
	"secret":    "",
	"log_level": "info",
	"listen":    ":8080",

	"allowed_networks": "",
	"media_base_url":   DEFAULT_MEDIA_BASE_URL,

	"pairing_ttl": 300,
	"nonce_store": "memory",

	"redis.addr":     "localhost:6379",
	"redis.password": "",
	"redis.db":       0,

	"telemetry.sample_interval":   defaultSampleInterval,
	"telemetry.sample_distance_m": defaultSampleDistance,
	"telemetry.max_batch_size":    defaultMaxBatchSize,

	"storage.type":        StorageSQLite,
	"storage.sqlite.path": "./data/playout.db",

	"storage.postgres.host":      "localhost",
	"storage.postgres.port":      5432,
	"storage.postgres.user":      "playout",
	"storage.postgres.password":  "",
	"storage.postgres.database":  "playout",
	"storage.postgres.sslmode":   "disable",
	"storage.postgres.max_conns": 20,
	"storage.postgres.max_idle":  5,
}

func Defaults() map[string]any {
	values := make(map[string]any)
	for k, v := range defaults {
		values[k] = v
	}
	return values
}
