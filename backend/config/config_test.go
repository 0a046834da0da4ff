package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server:    ServerConfig{Port: 3000},
		Database:  DatabaseConfig{Driver: DriverSQLite, Path: "test.db"},
		Auth:      AuthConfig{JWTSecret: "test-secret-key-for-unit-testing"},
		Limits:    DefaultLimits(),
		Retention: DefaultRetention(),
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"合法配置", func(c *Config) {}, ""},
		{"缺少 JWT 密钥", func(c *Config) { c.Auth.JWTSecret = "" }, "jwt_secret 不能为空"},
		{"JWT 密钥过短", func(c *Config) { c.Auth.JWTSecret = "short" }, "不能少于 16"},
		{"端口越界", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"未知驱动", func(c *Config) { c.Database.Driver = "mysql" }, "不支持的数据库驱动"},
		{"sqlite 缺少路径", func(c *Config) { c.Database.Path = "" }, "db.path"},
		{"上限非正数", func(c *Config) { c.Limits.MaxAreasPerCourse = 0 }, "max_areas_per_course"},
		{"postgres 无需路径", func(c *Config) { c.Database = DatabaseConfig{Driver: DriverPostgres} }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("期望校验通过，实际: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("期望错误包含 %q，实际: %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("MATRIX_AUTH_JWT_SECRET", "env-secret-key-for-unit-testing")
	t.Setenv("MATRIX_SERVER_PORT", "4100")
	t.Setenv("MATRIX_LIMITS_MAX_AREAS_PER_COURSE", "5")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if cfg.Server.Port != 4100 {
		t.Errorf("期望端口 4100，实际 %d", cfg.Server.Port)
	}
	if cfg.Limits.MaxAreasPerCourse != 5 {
		t.Errorf("期望 MaxAreasPerCourse=5，实际 %d", cfg.Limits.MaxAreasPerCourse)
	}
	if cfg.Limits.MaxStudentsPerCourse != 50 {
		t.Errorf("期望默认 MaxStudentsPerCourse=50，实际 %d", cfg.Limits.MaxStudentsPerCourse)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("期望默认驱动 sqlite，实际 %s", cfg.Database.Driver)
	}
	if cfg.Auth.AccessTokenTTL != 12*time.Hour {
		t.Errorf("期望默认 TTL 12h，实际 %s", cfg.Auth.AccessTokenTTL)
	}
	if cfg.Retention.DeletedCourseMonths != 6 || cfg.Retention.ExpiryWarningDays != 30 {
		t.Errorf("保留策略默认值不符合预期: %+v", cfg.Retention)
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("MATRIX_AUTH_JWT_SECRET", "")
	if _, err := Load(""); err == nil {
		t.Fatal("缺少 JWT 密钥时 Load 应失败")
	}
}
