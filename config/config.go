// Package config loads the region-merge subsystem's configuration,
// mirroring the teacher's root-level Configuration/LoadConfiguration
// pattern (config.go): a small JSON-loadable struct plus a file-reading
// constructor.
package config

import (
	"encoding/json"
	"os"
)

// Config holds the configuration keys spec.md §6 names, plus the backend
// connection parameters the coordination and catalog adapters need.
type Config struct {
	// TestingNoCluster disables all coordination-service side effects.
	// A host implementation loads this at startup and surfaces it through
	// hostiface.HostLifecycle.TestingNoCluster(), the transaction's only
	// consumer of the flag. Configuration key hbase.testing.nocluster,
	// default false.
	TestingNoCluster bool `json:"hbase.testing.nocluster"`

	// OpenLogIntervalMillis is the reporter log cadence during merged-region
	// open. Configuration key
	// hbase.regionserver.regionmerge.open.log.interval, default 10000.
	OpenLogIntervalMillis int64 `json:"hbase.regionserver.regionmerge.open.log.interval"`

	Redis     RedisConfig     `json:"redis"`
	Cassandra CassandraConfig `json:"cassandra"`
}

// RedisConfig mirrors the teacher's cache.Options (cache/redis.go).
type RedisConfig struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// CassandraConfig mirrors the teacher's cassandra.Config
// (cassandra/connection.go), trimmed to what the catalog adapter needs.
type CassandraConfig struct {
	ClusterHosts []string `json:"clusterHosts"`
	Keyspace     string   `json:"keyspace"`
	Table        string   `json:"table"`
}

// Default returns the configuration's documented defaults.
func Default() Config {
	return Config{
		TestingNoCluster:      false,
		OpenLogIntervalMillis: 10000,
		Redis:                 RedisConfig{Address: "localhost:6379", DB: 0},
		Cassandra:             CassandraConfig{Keyspace: "regionmerge", Table: "region_catalog"},
	}
}

// Load reads a JSON file into a Config, starting from Default() so any
// field the file omits keeps its documented default.
func Load(filename string) (Config, error) {
	ba, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, err
	}
	c := Default()
	if err := json.Unmarshal(ba, &c); err != nil {
		return Config{}, err
	}
	return c, nil
}
