package config

import (
	"os"
	"strconv"

	"github.com/dmitrijs2005/gophsocial/internal/flagx"
	"github.com/joho/godotenv"
)

// parseEnv overlays Config with environment variables. When -env names a
// file it is loaded first; variables already set in the process win.
// A missing or unreadable file panics, like a bad JSON config.
//
// Variables:
//
//	PORT                  HTTP port (":" is prepended) or address
//	GRPC_ADDR             gRPC health address
//	DATABASE_DSN          storage DSN; MONGODB_URL is accepted as a fallback
//	MONGO_DATABASE        Mongo database name
//	JWT_SECRET_KEY        JWT signing secret
//	APP_URL               public base URL for emailed links
//	SMTP_HOST, SMTP_PORT  outgoing mail server
//	AUTH_EMAIL            SMTP user
//	AUTH_PASSWORD         SMTP password
//	MAIL_FROM             sender address (defaults to AUTH_EMAIL)
//	S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET, S3_REGION, S3_BASE_ENDPOINT
//	LOG_FORMAT            json or console
func parseEnv(config *Config) {
	if path := flagx.EnvFileFlag(); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	}

	if v, ok := os.LookupEnv("PORT"); ok && v != "" {
		if _, err := strconv.Atoi(v); err == nil {
			v = ":" + v
		}
		config.EndpointAddrHTTP = v
	}

	setString(&config.EndpointAddrGRPC, "GRPC_ADDR")
	setString(&config.DatabaseDSN, "MONGODB_URL")
	setString(&config.DatabaseDSN, "DATABASE_DSN")
	setString(&config.MongoDatabase, "MONGO_DATABASE")
	setString(&config.SecretKey, "JWT_SECRET_KEY")
	setString(&config.AppURL, "APP_URL")
	setString(&config.SMTPHost, "SMTP_HOST")
	setString(&config.SMTPUser, "AUTH_EMAIL")
	setString(&config.SMTPPassword, "AUTH_PASSWORD")
	setString(&config.MailFrom, "AUTH_EMAIL")
	setString(&config.MailFrom, "MAIL_FROM")
	setString(&config.S3RootUser, "S3_ROOT_USER")
	setString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	setString(&config.S3Bucket, "S3_BUCKET")
	setString(&config.S3Region, "S3_REGION")
	setString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	setString(&config.LogFormat, "LOG_FORMAT")

	if v, ok := os.LookupEnv("SMTP_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		config.SMTPPort = port
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
