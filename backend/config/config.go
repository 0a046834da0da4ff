package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
	Limits    LimitsConfig    `mapstructure:"limits"`
	Retention RetentionConfig `mapstructure:"retention"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port           int        `mapstructure:"port"`
	BaseURL        string     `mapstructure:"base_url"`
	BodyLimitBytes int64      `mapstructure:"body_limit_bytes"`
	CORS           CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// 支持的数据库驱动
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig 数据库配置。postgres 用于服务端部署，sqlite 用于单机桌面模式
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Path            string `mapstructure:"path"` // 仅 sqlite
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 分钟
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 分钟
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置（Token 黑名单与限流），未启用时降级运行
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 教师登录与 JWT 配置
type AuthConfig struct {
	JWTSecret           string        `mapstructure:"jwt_secret"`
	AccessTokenTTL      time.Duration `mapstructure:"access_token_ttl"`
	TeacherUsername     string        `mapstructure:"teacher_username"`
	TeacherPasswordHash string        `mapstructure:"teacher_password_hash"` // bcrypt
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LimitsConfig 名称长度与数量上限，显式注入各 Service
type LimitsConfig struct {
	MaxStudentNameLength     int `mapstructure:"max_student_name_length"`
	MaxCourseNameLength      int `mapstructure:"max_course_name_length"`
	MaxAssignmentNameLength  int `mapstructure:"max_assignment_name_length"`
	MaxAreaNameLength        int `mapstructure:"max_area_name_length"`
	MaxAreaDescriptionLength int `mapstructure:"max_area_description_length"`
	MaxStudentsPerCourse     int `mapstructure:"max_students_per_course"`
	MaxAreasPerCourse        int `mapstructure:"max_areas_per_course"`
}

// DefaultLimits 默认上限
func DefaultLimits() LimitsConfig {
	return LimitsConfig{
		MaxStudentNameLength:     100,
		MaxCourseNameLength:      100,
		MaxAssignmentNameLength:  200,
		MaxAreaNameLength:        150,
		MaxAreaDescriptionLength: 500,
		MaxStudentsPerCourse:     50,
		MaxAreasPerCourse:        20,
	}
}

// RetentionConfig 软删除数据保留策略
type RetentionConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	DeletedCourseMonths  int    `mapstructure:"deleted_course_months"`
	DeletedStudentMonths int    `mapstructure:"deleted_student_months"`
	ExpiryWarningDays    int    `mapstructure:"expiry_warning_days"`
	SweepCron            string `mapstructure:"sweep_cron"`
}

// DefaultRetention 默认保留 6 个月，到期前 30 天提示
func DefaultRetention() RetentionConfig {
	return RetentionConfig{
		Enabled:              true,
		DeletedCourseMonths:  6,
		DeletedStudentMonths: 6,
		ExpiryWarningDays:    30,
		SweepCron:            "15 2 * * *",
	}
}

// RateLimitConfig 登录接口限流
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// Load 从 .env、配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值；.env 中的值以环境变量形式参与
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("读取 .env 失败: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("MATRIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(path != "" && os.IsNotExist(err)) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.base_url", "http://localhost:3000")
	v.SetDefault("server.body_limit_bytes", 2<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.driver", DriverSQLite)
	v.SetDefault("db.path", "data/assessment-matrix.db")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "assessment_matrix")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_token_ttl", "12h")
	v.SetDefault("auth.teacher_username", "teacher")
	v.SetDefault("auth.teacher_password_hash", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	l := DefaultLimits()
	v.SetDefault("limits.max_student_name_length", l.MaxStudentNameLength)
	v.SetDefault("limits.max_course_name_length", l.MaxCourseNameLength)
	v.SetDefault("limits.max_assignment_name_length", l.MaxAssignmentNameLength)
	v.SetDefault("limits.max_area_name_length", l.MaxAreaNameLength)
	v.SetDefault("limits.max_area_description_length", l.MaxAreaDescriptionLength)
	v.SetDefault("limits.max_students_per_course", l.MaxStudentsPerCourse)
	v.SetDefault("limits.max_areas_per_course", l.MaxAreasPerCourse)

	r := DefaultRetention()
	v.SetDefault("retention.enabled", r.Enabled)
	v.SetDefault("retention.deleted_course_months", r.DeletedCourseMonths)
	v.SetDefault("retention.deleted_student_months", r.DeletedStudentMonths)
	v.SetDefault("retention.expiry_warning_days", r.ExpiryWarningDays)
	v.SetDefault("retention.sweep_cron", r.SweepCron)

	v.SetDefault("rate_limit.requests", 10)
	v.SetDefault("rate_limit.window", "1m")
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	switch c.Database.Driver {
	case DriverPostgres:
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("配置校验失败: sqlite 模式下 db.path 不能为空")
		}
	default:
		return fmt.Errorf("配置校验失败: 不支持的数据库驱动 %q", c.Database.Driver)
	}
	l := c.Limits
	for name, n := range map[string]int{
		"max_student_name_length":     l.MaxStudentNameLength,
		"max_course_name_length":      l.MaxCourseNameLength,
		"max_assignment_name_length":  l.MaxAssignmentNameLength,
		"max_area_name_length":        l.MaxAreaNameLength,
		"max_area_description_length": l.MaxAreaDescriptionLength,
		"max_students_per_course":     l.MaxStudentsPerCourse,
		"max_areas_per_course":        l.MaxAreasPerCourse,
	} {
		if n <= 0 {
			return fmt.Errorf("配置校验失败: limits.%s 必须为正数", name)
		}
	}
	if c.Retention.Enabled && c.Retention.SweepCron == "" {
		return fmt.Errorf("配置校验失败: retention.sweep_cron 不能为空")
	}
	return nil
}
