package config

import (
	"os"
	"testing"
	"time"
)

var allEnvVars = []string{
	"HOST", "PORT", "READ_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT", "ENVIRONMENT", "ALLOWED_ORIGINS",
	"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSL_MODE", "DB_SQLITE_PATH",
	"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_CONN_MAX_IDLE_TIME",
	"REDIS_ENABLED", "REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "REDIS_POOL_SIZE",
	"REDIS_MIN_IDLE_CONNS", "REDIS_MAX_RETRIES", "REDIS_DIAL_TIMEOUT", "REDIS_READ_TIMEOUT", "REDIS_WRITE_TIMEOUT",
	"CACHE_PROJECT_LIST_TTL", "CACHE_PROJECT_TTL", "CACHE_DASHBOARD_TTL", "CACHE_L1_TTL",
	"WORKER_CONCURRENCY",
	"JWT_SECRET", "JWT_ISSUER", "ACCESS_TOKEN_TTL",
	"RATE_LIMIT_ENABLED", "RATE_LIMIT_RPM", "RATE_LIMIT_BURST", "RATE_LIMIT_CLEANUP",
	"ANTHROPIC_API_KEY", "AI_BASE_URL", "AI_MODEL", "AI_MAX_TOKENS", "AI_TIMEOUT",
	"UPLOAD_DIR", "PUBLIC_BASE_URL", "MAX_UPLOAD_SIZE",
}

func setEnvVars(vars map[string]string) {
	for k, v := range vars {
		os.Setenv(k, v)
	}
}

func clearEnvVars(vars []string) {
	for _, k := range vars {
		os.Unsetenv(k)
	}
}

func withEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	clearEnvVars(allEnvVars)
	setEnvVars(vars)
	t.Cleanup(func() { clearEnvVars(allEnvVars) })
}

func TestLoadConfig_Defaults(t *testing.T) {
	withEnv(t, nil)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error with default config, got: %v", err)
	}

	if config.Server.Host != "localhost" {
		t.Errorf("Expected default host 'localhost', got %s", config.Server.Host)
	}

	if config.Server.Port != "8080" {
		t.Errorf("Expected default port '8080', got %s", config.Server.Port)
	}

	if config.Server.Environment != "development" {
		t.Errorf("Expected default environment 'development', got %s", config.Server.Environment)
	}

	if len(config.Server.AllowedOrigins) != 1 || config.Server.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("Expected default allowed origin, got %v", config.Server.AllowedOrigins)
	}

	if config.Database.Driver != "postgres" {
		t.Errorf("Expected default DB driver 'postgres', got %s", config.Database.Driver)
	}

	if config.Database.Name != "taskpilot" {
		t.Errorf("Expected default DB name 'taskpilot', got %s", config.Database.Name)
	}

	if config.Database.MaxOpenConns != 25 {
		t.Errorf("Expected default max open conns 25, got %d", config.Database.MaxOpenConns)
	}

	if !config.Redis.Enabled {
		t.Error("Expected Redis to be enabled by default")
	}

	if config.Redis.PoolSize != 10 {
		t.Errorf("Expected default Redis pool size 10, got %d", config.Redis.PoolSize)
	}

	if config.Cache.ProjectListTTL != 5*time.Minute {
		t.Errorf("Expected default project list TTL 5m, got %v", config.Cache.ProjectListTTL)
	}

	if config.Worker.Concurrency != 2 {
		t.Errorf("Expected default worker concurrency 2, got %d", config.Worker.Concurrency)
	}

	if len(config.Worker.Queues) != 3 {
		t.Errorf("Expected 3 default queues, got %d", len(config.Worker.Queues))
	}

	if config.Auth.Issuer != "taskpilot-identity" {
		t.Errorf("Expected default issuer 'taskpilot-identity', got %s", config.Auth.Issuer)
	}

	if config.AI.BaseURL != "https://api.anthropic.com" {
		t.Errorf("Expected default AI base URL, got %s", config.AI.BaseURL)
	}

	if config.AI.MaxTokens != 2048 {
		t.Errorf("Expected default AI max tokens 2048, got %d", config.AI.MaxTokens)
	}

	if config.Storage.UploadDir != "uploads" {
		t.Errorf("Expected default upload dir 'uploads', got %s", config.Storage.UploadDir)
	}

	if config.Storage.MaxUploadSize != 32<<20 {
		t.Errorf("Expected default max upload size 32MB, got %d", config.Storage.MaxUploadSize)
	}

	if !config.RateLimit.Enabled {
		t.Error("Expected rate limiting to be enabled by default")
	}
}

func TestLoadConfig_CustomEnvironment(t *testing.T) {
	withEnv(t, map[string]string{
		"HOST":               "0.0.0.0",
		"PORT":               "9000",
		"ENVIRONMENT":        "production",
		"ALLOWED_ORIGINS":    "https://app.example.com, https://admin.example.com",
		"DB_HOST":            "db.example.com",
		"DB_PASSWORD":        "secure_password",
		"DB_MAX_OPEN_CONNS":  "50",
		"REDIS_ENABLED":      "false",
		"REDIS_DB":           "1",
		"WORKER_CONCURRENCY": "8",
		"JWT_SECRET":         "super-secret-key",
		"RATE_LIMIT_ENABLED": "false",
		"READ_TIMEOUT":       "45s",
		"ACCESS_TOKEN_TTL":   "30m",
		"AI_MODEL":           "claude-haiku-4-5",
		"AI_TIMEOUT":         "10s",
		"CACHE_PROJECT_TTL":  "1m",
		"CACHE_L1_TTL":       "5s",
	})

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error with custom config, got: %v", err)
	}

	if config.Server.Host != "0.0.0.0" {
		t.Errorf("Expected host '0.0.0.0', got %s", config.Server.Host)
	}

	if len(config.Server.AllowedOrigins) != 2 || config.Server.AllowedOrigins[1] != "https://admin.example.com" {
		t.Errorf("Expected two trimmed origins, got %v", config.Server.AllowedOrigins)
	}

	if config.Database.Host != "db.example.com" {
		t.Errorf("Expected DB host 'db.example.com', got %s", config.Database.Host)
	}

	if config.Database.MaxOpenConns != 50 {
		t.Errorf("Expected max open conns 50, got %d", config.Database.MaxOpenConns)
	}

	if config.Redis.Enabled {
		t.Error("Expected Redis to be disabled")
	}

	if config.Redis.DB != 1 {
		t.Errorf("Expected Redis DB 1, got %d", config.Redis.DB)
	}

	if config.Worker.Concurrency != 8 {
		t.Errorf("Expected worker concurrency 8, got %d", config.Worker.Concurrency)
	}

	if config.RateLimit.Enabled {
		t.Error("Expected rate limiting to be disabled")
	}

	if config.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Expected read timeout 45s, got %v", config.Server.ReadTimeout)
	}

	if config.Auth.AccessTokenTTL != 30*time.Minute {
		t.Errorf("Expected access token TTL 30m, got %v", config.Auth.AccessTokenTTL)
	}

	if config.AI.Model != "claude-haiku-4-5" {
		t.Errorf("Expected AI model 'claude-haiku-4-5', got %s", config.AI.Model)
	}

	if config.AI.Timeout != 10*time.Second {
		t.Errorf("Expected AI timeout 10s, got %v", config.AI.Timeout)
	}

	if config.Cache.ProjectTTL != time.Minute {
		t.Errorf("Expected project TTL 1m, got %v", config.Cache.ProjectTTL)
	}

	if config.Cache.L1TTL != 5*time.Second {
		t.Errorf("Expected L1 TTL 5s, got %v", config.Cache.L1TTL)
	}
}

func TestLoadConfig_ProductionValidation(t *testing.T) {
	withEnv(t, map[string]string{
		"ENVIRONMENT": "production",
		"JWT_SECRET":  "secure-jwt-secret",
	})

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("Expected error for missing database password in production")
	}

	if err.Error() != "database password is required in production" {
		t.Errorf("Expected specific error message, got: %v", err)
	}
}

func TestLoadConfig_ProductionSQLiteNeedsNoPassword(t *testing.T) {
	withEnv(t, map[string]string{
		"ENVIRONMENT": "production",
		"DB_DRIVER":   "sqlite",
		"JWT_SECRET":  "secure-jwt-secret",
	})

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if config.GetDatabaseDSN() != "taskpilot.db" {
		t.Errorf("Expected sqlite path as DSN, got %s", config.GetDatabaseDSN())
	}
}

func TestLoadConfig_ProductionJWTValidation(t *testing.T) {
	withEnv(t, map[string]string{
		"ENVIRONMENT": "production",
		"DB_PASSWORD": "secure-db-password",
	})

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("Expected error for default JWT secret in production")
	}

	if err.Error() != "JWT secret must be set in production" {
		t.Errorf("Expected specific error message, got: %v", err)
	}
}

func TestLoadConfig_UnsupportedDriver(t *testing.T) {
	withEnv(t, map[string]string{"DB_DRIVER": "mysql"})

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected error for unsupported driver")
	}
}

func TestConfig_GetDatabaseDSN(t *testing.T) {
	config := &Config{
		Database: DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     "5432",
			User:     "testuser",
			Password: "testpass",
			Name:     "testdb",
			SSLMode:  "require",
		},
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=require"
	actual := config.GetDatabaseDSN()

	if actual != expected {
		t.Errorf("Expected DSN '%s', got '%s'", expected, actual)
	}
}

func TestConfig_Addrs(t *testing.T) {
	config := &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: "9000"},
		Redis:  RedisConfig{Host: "redis.example.com", Port: "6380"},
	}

	if got := config.GetServerAddr(); got != "0.0.0.0:9000" {
		t.Errorf("Expected server addr '0.0.0.0:9000', got '%s'", got)
	}

	if got := config.GetRedisAddr(); got != "redis.example.com:6380" {
		t.Errorf("Expected Redis addr 'redis.example.com:6380', got '%s'", got)
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		environment string
		expected    bool
	}{
		{"production", true},
		{"development", false},
		{"staging", false},
		{"", false},
	}

	for _, test := range tests {
		config := &Config{Server: ServerConfig{Environment: test.environment}}

		if actual := config.IsProduction(); actual != test.expected {
			t.Errorf("For environment '%s', expected IsProduction() = %v, got %v",
				test.environment, test.expected, actual)
		}
	}
}

func TestGetEnvAsInt(t *testing.T) {
	key := "TEST_INT_VAR"
	defaultValue := 42

	os.Unsetenv(key)
	if result := getEnvAsInt(key, defaultValue); result != defaultValue {
		t.Errorf("Expected default value %d, got %d", defaultValue, result)
	}

	os.Setenv(key, "100")
	defer os.Unsetenv(key)

	if result := getEnvAsInt(key, defaultValue); result != 100 {
		t.Errorf("Expected env value 100, got %d", result)
	}

	os.Setenv(key, "not-a-number")
	if result := getEnvAsInt(key, defaultValue); result != defaultValue {
		t.Errorf("Expected default value %d for invalid int, got %d", defaultValue, result)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	key := "TEST_BOOL_VAR"
	defaultValue := true
	defer os.Unsetenv(key)

	testCases := []struct {
		value    string
		expected bool
	}{
		{"true", true},
		{"false", false},
		{"1", true},
		{"0", false},
		{"invalid", defaultValue},
	}

	for _, tc := range testCases {
		os.Setenv(key, tc.value)
		if result := getEnvAsBool(key, defaultValue); result != tc.expected {
			t.Errorf("For value '%s', expected %v, got %v", tc.value, tc.expected, result)
		}
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	key := "TEST_DURATION_VAR"
	defaultValue := 30 * time.Second
	defer os.Unsetenv(key)

	os.Setenv(key, "5m")
	if result := getEnvAsDuration(key, defaultValue); result != 5*time.Minute {
		t.Errorf("Expected env value 5m, got %v", result)
	}

	os.Setenv(key, "not-a-duration")
	if result := getEnvAsDuration(key, defaultValue); result != defaultValue {
		t.Errorf("Expected default value %v for invalid duration, got %v", defaultValue, result)
	}
}

func TestGetEnvAsSlice(t *testing.T) {
	key := "TEST_SLICE_VAR"
	defer os.Unsetenv(key)

	os.Unsetenv(key)
	if result := getEnvAsSlice(key, []string{"a"}); len(result) != 1 || result[0] != "a" {
		t.Errorf("Expected default slice, got %v", result)
	}

	os.Setenv(key, "x, ,y,")
	result := getEnvAsSlice(key, nil)
	if len(result) != 2 || result[0] != "x" || result[1] != "y" {
		t.Errorf("Expected [x y], got %v", result)
	}
}

func BenchmarkLoadConfig(b *testing.B) {
	setEnvVars(map[string]string{
		"ENVIRONMENT": "production",
		"DB_PASSWORD": "password",
		"JWT_SECRET":  "secret",
	})
	defer clearEnvVars(allEnvVars)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := LoadConfig(); err != nil {
			b.Fatalf("Failed to load config: %v", err)
		}
	}
}
