package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Inference InferenceConfig
	JobSearch JobSearchConfig
	Suggest   SuggestConfig
	Retry     RetryConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// InferenceConfig holds the remote text-inference endpoint settings. The
// base endpoint, request deadline and credential are configuration, and each
// task is served by its own configured model.
type InferenceConfig struct {
	Endpoint       string
	APIKey         string
	TimeoutSeconds int
	MaxInputChars  int
	SkillModel     string
	RoleModel      string
	MinSkillScore  float64
}

type JobSearchConfig struct {
	Endpoint string
	AppID    string
	AppKey   string
	Country  string
	PageSize int
}

type SuggestConfig struct {
	RoleQueryTerms  int
	SkillQueryTerms int
	MaxPerQuery     int
	DefaultLimit    int
}

type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "jobscout"),
		},
		Inference: InferenceConfig{
			Endpoint:       getEnv("INFERENCE_ENDPOINT", "https://router.huggingface.co/hf-inference"),
			APIKey:         getEnv("INFERENCE_API_KEY", ""),
			TimeoutSeconds: getEnvAsInt("INFERENCE_TIMEOUT_SECONDS", 60),
			MaxInputChars:  getEnvAsInt("INFERENCE_MAX_INPUT_CHARS", 16000),
			SkillModel:     getEnv("INFERENCE_SKILL_MODEL", "algiraldohe/lm-ner-linkedin-skills-recognition"),
			RoleModel:      getEnv("INFERENCE_ROLE_MODEL", "serbog/distilbert-jobcategory-410k"),
			MinSkillScore:  getEnvAsFloat("INFERENCE_MIN_SKILL_SCORE", 0.5),
		},
		JobSearch: JobSearchConfig{
			Endpoint: getEnv("JOBSEARCH_ENDPOINT", "https://api.adzuna.com/v1/api"),
			AppID:    getEnv("JOBSEARCH_APP_ID", ""),
			AppKey:   getEnv("JOBSEARCH_APP_KEY", ""),
			Country:  getEnv("JOBSEARCH_COUNTRY", "gb"),
			PageSize: getEnvAsInt("JOBSEARCH_PAGE_SIZE", 20),
		},
		Suggest: SuggestConfig{
			RoleQueryTerms:  getEnvAsInt("SUGGEST_ROLE_QUERY_TERMS", 3),
			SkillQueryTerms: getEnvAsInt("SUGGEST_SKILL_QUERY_TERMS", 4),
			MaxPerQuery:     getEnvAsInt("SUGGEST_MAX_PER_QUERY", 50),
			DefaultLimit:    getEnvAsInt("SUGGEST_DEFAULT_LIMIT", 10),
		},
		Retry: RetryConfig{
			MaxAttempts:  getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
			InitialDelay: getEnvAsDuration("RETRY_INITIAL_DELAY", "2s"),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
