package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	LLM      LLMConfig
	Session  SessionConfig
	Rooms    RoomsConfig
	Snapshot SnapshotConfig
}

type LLMConfig struct {
	// Provider selects gemini, groq or fake.
	Provider     string
	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string
	GroqModel    string
}

type SessionConfig struct {
	Token  string
	UserID string
}

type RoomsConfig struct {
	// PostgresDSN enables the database backend; empty means the
	// JSON-file backend at FilePath.
	PostgresDSN string
	FilePath    string
}

type SnapshotConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:     *port,
		Env:      env,
		LLM:      loadLLMConfig(),
		Session:  loadSessionConfig(),
		Rooms:    loadRoomsConfig(),
		Snapshot: loadSnapshotConfig(env),
	}, nil
}

func loadLLMConfig() LLMConfig {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER")))
	gemini := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	groq := strings.TrimSpace(os.Getenv("GROQ_API_KEY"))
	if provider == "" {
		switch {
		case gemini != "":
			provider = "gemini"
		case groq != "":
			provider = "groq"
		default:
			provider = "fake"
		}
	}
	return LLMConfig{
		Provider:     provider,
		GeminiAPIKey: gemini,
		GeminiModel:  firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_MODEL")), "gemini-2.0-flash"),
		GroqAPIKey:   groq,
		GroqModel:    firstNonEmpty(strings.TrimSpace(os.Getenv("GROQ_MODEL")), "llama-3.3-70b-versatile"),
	}
}

func loadSessionConfig() SessionConfig {
	return SessionConfig{
		Token:  firstNonEmpty(strings.TrimSpace(os.Getenv("SESSION_TOKEN")), "local-dev-token"),
		UserID: firstNonEmpty(strings.TrimSpace(os.Getenv("SESSION_USER_ID")), "local-user"),
	}
}

func loadRoomsConfig() RoomsConfig {
	return RoomsConfig{
		PostgresDSN: strings.TrimSpace(os.Getenv("ROOM_STORE_PG_DSN")),
		FilePath:    firstNonEmpty(strings.TrimSpace(os.Getenv("ROOM_STORE_PATH")), "data/rooms.json"),
	}
}

func loadSnapshotConfig(env string) SnapshotConfig {
	endpoint := resolveSnapshotEndpoint(env)
	return SnapshotConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("SNAPSHOT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("SNAPSHOT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("SNAPSHOT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("SNAPSHOT_S3_BUCKET")), "boron-snapshots"),
		UseSSL:    resolveSnapshotUseSSL(env),
	}
}

func resolveSnapshotEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(os.Getenv("SNAPSHOT_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("SNAPSHOT_S3_ENDPOINT"))
}

func resolveSnapshotUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("SNAPSHOT_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
