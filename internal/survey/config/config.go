package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	MongoURI          string
	Port              string
	DBName            string
	SurveysCollection string
	AuditCollection   string
	JWTSecret         string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration

	// Access engine flags. Fixed for the lifetime of the process.
	AdminSeesAll         bool
	AllowSuperuserBypass bool
	AuditPrivileged      bool
}

func LoadConfig() (*Config, error) {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	cfg := &Config{
		MongoURI:          mongoURI,
		Port:              port,
		DBName:            getEnv("DB_NAME", "surveydir_db"),
		SurveysCollection: getEnv("COLLECTION_SURVEYS", "surveys"),
		AuditCollection:   getEnv("COLLECTION_AUDIT_LOGS", "survey_audit_logs"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		ReadTimeout:       getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:      getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),

		AdminSeesAll:         getEnvBool("ADMIN_SEES_ALL", true),
		AllowSuperuserBypass: getEnvBool("SUPERUSER_BYPASS", true),
		AuditPrivileged:      getEnvBool("AUDIT_PRIVILEGED", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	valStr := os.Getenv(key)
	if valStr == "" {
		return fallback
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return fallback
	}
	return val
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	valStr := os.Getenv(key)
	if valStr == "" {
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		d, err := time.ParseDuration(valStr)
		if err == nil {
			return d
		}
		return fallback
	}
	return time.Duration(val) * time.Second
}
