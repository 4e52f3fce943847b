package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"
)

type Config struct {
	Addr        string
	DBUrl       string
	TokenSecret string
	TokenTTL    time.Duration
	Debug       bool

	MaxTextLength int
	MaxUploadSize int64
	UploadDir     string
	S3            S3

	AdminUser     string
	AdminPassword string
}

// S3 selects bucket storage for uploads when Endpoint is set.
type S3 struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

func ParseFlags() (Config, error) {
	return ParseArgs(os.Args[1:])
}

func ParseArgs(args []string) (cfg Config, err error) {
	fs := flag.NewFlagSet("quick-forms", flag.ContinueOnError)

	var host string
	fs.StringVar(&host, "host", "0.0.0.0", "listen host name")
	var port uint
	fs.UintVar(&port, "port", 80, "listen port number")
	fs.StringVar(&cfg.DBUrl, "db-url", "qforms.sqlite", "path to SQLite3 DB file")
	fs.StringVar(&cfg.TokenSecret, "token-secret", "", "secret key for token encryption and decryption")
	var ttl uint
	fs.UintVar(&ttl, "token-ttl", 120, "token TTL in seconds")
	fs.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")

	fs.IntVar(&cfg.MaxTextLength, "max-text-length", 0, "maximum length of text answers, 0 for unbounded")
	fs.Int64Var(&cfg.MaxUploadSize, "max-upload-size", 10<<20, "maximum size of an uploaded file in bytes")
	fs.StringVar(&cfg.UploadDir, "upload-dir", "uploads", "directory for uploaded files")
	fs.StringVar(&cfg.S3.Endpoint, "s3-endpoint", "", "S3/MinIO endpoint; uploads go to the bucket when set")
	fs.StringVar(&cfg.S3.Bucket, "s3-bucket", "qforms-uploads", "S3 bucket for uploaded files")
	fs.StringVar(&cfg.S3.AccessKey, "s3-access-key", "", "S3 access key")
	fs.StringVar(&cfg.S3.SecretKey, "s3-secret-key", "", "S3 secret key")
	fs.BoolVar(&cfg.S3.UseSSL, "s3-ssl", true, "use TLS to reach the S3 endpoint")

	fs.StringVar(&cfg.AdminUser, "admin-user", "", "create or reset this admin user at startup")
	fs.StringVar(&cfg.AdminPassword, "admin-password", "", "password for -admin-user")

	if err = fs.Parse(args); err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second

	switch {
	case cfg.TokenSecret == "":
		err = errors.New("missing parameter -token-secret")
	case cfg.MaxTextLength < 0:
		err = errors.New("-max-text-length must not be negative")
	case cfg.MaxUploadSize <= 0:
		err = errors.New("-max-upload-size must be positive")
	case cfg.AdminUser != "" && cfg.AdminPassword == "":
		err = errors.New("missing parameter -admin-password")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
