package database

import (
	"strings"
	"testing"

	"github.com/Alijeyrad/playcare_backend/config"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "postgres",
			cfg:  Config{Driver: "postgres", Host: "db", Port: 5432, User: "u", Password: "p", DBName: "playcare", SSLMode: "disable"},
			want: "host=db port=5432 user=u password=p dbname=playcare sslmode=disable",
		},
		{
			name: "driver defaults to postgres",
			cfg:  Config{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "playcare", SSLMode: "disable"},
			want: "host=db port=5432 user=u password=p dbname=playcare sslmode=disable",
		},
		{
			name: "sqlite file",
			cfg:  Config{Driver: "sqlite", Path: "data/playcare.db"},
			want: "file:data/playcare.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		},
		{
			name: "sqlite in memory is shared",
			cfg:  Config{Driver: "sqlite", Path: ":memory:"},
			want: "file::memory:?mode=memory&cache=shared&_pragma=foreign_keys(1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.DSN(); got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromCentralConfig(t *testing.T) {
	var c config.DatabaseConfig
	c.Driver = "sqlite"
	c.Path = "x.db"
	c.Migrations.AutoMigrate = true
	c.Migrations.SafeMode = true

	got := FromCentralConfig(c)
	if got.Driver != "sqlite" || got.Path != "x.db" {
		t.Fatalf("driver/path not carried over: %+v", got)
	}
	if !got.AutoMigrate || !got.SafeMode {
		t.Errorf("migration flags not carried over: %+v", got)
	}
	if !strings.HasPrefix(got.DSN(), "file:x.db") {
		t.Errorf("DSN() = %q", got.DSN())
	}
}

func TestNewDSNAlwaysPostgres(t *testing.T) {
	c := config.DatabaseConfig{Driver: "sqlite", Host: "h", Port: 1, User: "u", Password: "p", DBName: "casbin", SSLMode: "disable"}
	if got := NewDSN(c); !strings.HasPrefix(got, "host=h port=1") {
		t.Errorf("NewDSN() = %q", got)
	}
}

func TestInitializeDatabasesMemory(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = "memory"
	if err := InitializeDatabases(cfg); err != nil {
		t.Fatalf("InitializeDatabases: %v", err)
	}
}
