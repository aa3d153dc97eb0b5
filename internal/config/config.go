package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type DB struct {
	User string
	Pass string
	Host string
	Port string
	Name string
}

type Worker struct {
	MaxRetries    int           // Retry ceiling; a task at this count is quarantined
	IdleBackoff   time.Duration // Sleep after an empty queue pass
	ErrorBackoff  time.Duration // Sleep after a failed pass
	DepthInterval time.Duration // Queue depth gauge refresh interval
	HTTPPort      string        // Worker metrics/health port
}

type Mailer struct {
	PostmarkServerToken  string
	PostmarkAccountToken string
	SenderEmail          string
	ReplyToEmail         string
	DevOutboxDir         string // Used instead of Postmark when no server token is set
}

type DeadLetter struct {
	NsqdTCPAddr string // e.g. nsqd:4150
	Topic       string // NSQ topic for exhausted tasks
	Publish     bool   // Whether to publish dead letters at all
}

type Config struct {
	AppName    string
	DB         DB
	Worker     Worker
	Mailer     Mailer
	DeadLetter DeadLetter
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func FromEnv() Config {
	return Config{
		AppName: getenv("APP_NAME", "paperboy"),
		DB: DB{
			User: getenv("DB_USER", "postgres"),
			Pass: getenv("DB_PASS", "postgres"),
			Host: getenv("DB_HOST", "postgres"),
			Port: getenv("DB_PORT", "5432"),
			Name: getenv("DB_NAME", "paperboy"),
		},
		Worker: Worker{
			MaxRetries:    getenvInt("MAX_RETRIES", 5),
			IdleBackoff:   getenvDuration("IDLE_BACKOFF", 10*time.Second),
			ErrorBackoff:  getenvDuration("ERROR_BACKOFF", time.Second),
			DepthInterval: getenvDuration("QUEUE_DEPTH_INTERVAL", 15*time.Second),
			HTTPPort:      ":" + getenv("WORKER_HTTP_PORT", "8082"),
		},
		Mailer: Mailer{
			PostmarkServerToken:  getenv("POSTMARK_SERVER_TOKEN", ""),
			PostmarkAccountToken: getenv("POSTMARK_ACCOUNT_TOKEN", ""),
			SenderEmail:          getenv("SENDER_EMAIL", "newsletter@example.com"),
			ReplyToEmail:         getenv("REPLY_TO_EMAIL", "support@example.com"),
			DevOutboxDir:         getenv("DEV_OUTBOX_DIR", "./outbox"),
		},
		DeadLetter: DeadLetter{
			NsqdTCPAddr: getenv("NSQD_TCP_ADDR", "nsqd:4150"),
			Topic:       getenv("NSQ_DLQ_TOPIC", "issue_deliveries_dlq"),
			Publish:     getenvBool("PUBLISH_DLQ_TOPIC", false),
		},
	}
}

func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DB.User, c.DB.Pass, c.DB.Host, c.DB.Port, c.DB.Name)
}
