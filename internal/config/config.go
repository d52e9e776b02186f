package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	BucketEnvVar = "BUCKET_NAME"

	// MissingBucketMessage is returned to the invoker verbatim when BUCKET_NAME is unset.
	MissingBucketMessage = "Missing " + BucketEnvVar + " env var"
)

const (
	HostLambda = "lambda"
	HostHTTP   = "http"
	HostKafka  = "kafka"
)

const (
	StoreS3     = "s3"
	StoreMemory = "memory"
)

var ErrMissingBucket = errors.New(MissingBucketMessage)

type Config struct {
	BucketName string

	BlobStoreType     string
	Region            string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string

	HostMode       string
	ListenAddr     string
	MetricsAddr    string
	DeploymentMode string

	KafkaBrokers        []string
	KafkaTopic          string
	KafkaConsumerGroup  string
	KafkaMaxPollRecords int

	OTLPEndpoint string
}

// Load reads the process environment once. A missing bucket is not a load
// error; it is reported per invocation by the handler.
func Load() Config {
	return Config{
		BucketName:          strings.TrimSpace(os.Getenv(BucketEnvVar)),
		BlobStoreType:       envOrDefault("BLOB_STORE_TYPE", StoreS3),
		Region:              envOrDefault("AWS_REGION", "us-east-1"),
		S3Endpoint:          os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:       os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey:   os.Getenv("S3_SECRET_ACCESS_KEY"),
		HostMode:            envOrDefault("HOST_MODE", HostLambda),
		ListenAddr:          envOrDefault("LISTEN_ADDR", ":8080"),
		MetricsAddr:         envOrDefault("METRICS_ADDR", ":9090"),
		DeploymentMode:      os.Getenv("DEPLOYMENT_MODE"),
		KafkaBrokers:        splitBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:          envOrDefault("KAFKA_TOPIC", "events"),
		KafkaConsumerGroup:  envOrDefault("KAFKA_CONSUMER_GROUP", "event-ingest"),
		KafkaMaxPollRecords: envIntOrDefault("KAFKA_MAX_POLL_RECORDS", 100),
		OTLPEndpoint:        os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}

func (c Config) HasBucket() bool {
	return c.BucketName != ""
}

func (c Config) Validate() error {
	switch c.HostMode {
	case HostLambda, HostHTTP, HostKafka:
	default:
		return fmt.Errorf("HOST_MODE=%q is not supported; use %s, %s or %s",
			c.HostMode, HostLambda, HostHTTP, HostKafka)
	}
	switch c.BlobStoreType {
	case StoreS3, StoreMemory:
	default:
		return fmt.Errorf("BLOB_STORE_TYPE=%q is not supported; use %s or %s",
			c.BlobStoreType, StoreS3, StoreMemory)
	}
	if err := validateBlobStoreForProduction(c.DeploymentMode, c.BlobStoreType); err != nil {
		return err
	}
	if (c.S3AccessKeyID == "") != (c.S3SecretAccessKey == "") {
		return errors.New("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
	}
	if c.HostMode == HostKafka {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is empty")
		}
		if c.KafkaTopic == "" {
			return errors.New("KAFKA_TOPIC is empty")
		}
	}
	return nil
}

func validateBlobStoreForProduction(deploymentMode, blobStoreType string) error {
	if deploymentMode == "production" && blobStoreType != StoreS3 {
		return fmt.Errorf(
			"BLOB_STORE_TYPE=%q is unsafe for DEPLOYMENT_MODE=production; "+
				"stored events are lost on restart; set BLOB_STORE_TYPE=s3",
			blobStoreType,
		)
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitBrokers(raw string) []string {
	var out []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
