package config

import (
	"flag"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/interntrack/internal/flagx"
)

var serverFlags = []string{"-a", "-d", "-s", "-t", "-u", "-p", "-b", "-g", "-e", "-m", "-o", "-r", "-l"}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":5000")
//	-d string   PostgreSQL DSN
//	-s string   token HMAC secret key
//	-t int      token validity, minutes
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-m int      max upload size, bytes
//	-o string   comma-separated CORS origins
//	-r string   Redis address for the rate limiter
//	-l string   log level
//
// Arguments are first filtered with flagx.FilterArgs so that -c/-config and
// -env-file, handled elsewhere, do not trip the parser.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	tokenTTL := fs.Int("t", int(config.TokenTTL.Minutes()), "token validity (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.Int64Var(&config.MaxUploadBytes, "m", config.MaxUploadBytes, "max upload size in bytes")
	origins := fs.String("o", strings.Join(config.CORSOrigins, ","), "allowed CORS origins, comma separated")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "Redis address for rate limiting")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, serverFlags)); err != nil {
		return err
	}

	// Only explicitly given flags override; a round trip through minutes
	// would truncate a sub-minute TTL loaded from JSON.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.TokenTTL = time.Duration(*tokenTTL) * time.Minute
		case "o":
			config.CORSOrigins = splitList(*origins)
		}
	})
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimRight(strings.TrimSpace(p), "/"); p != "" {
			out = append(out, p)
		}
	}
	return out
}
