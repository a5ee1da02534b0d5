// Package logs configures the process-wide logrus logger: output format and an
// optional persistent copy of everything written to stdout.
package logs

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	joonix "github.com/joonix/log"
	"github.com/prysmaticlabs/slashprotect/config/params"
	"github.com/prysmaticlabs/slashprotect/io/file"
	"github.com/sirupsen/logrus"
	"github.com/wercker/journalhook"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Formats lists the accepted log format names, default first.
func Formats() []string {
	return []string{"text", "fluentd", "json", "journald"}
}

// ConfigureFormatter installs the formatter for format on the standard logger.
// Colors are disabled for text output when logs are also written to a file.
func ConfigureFormatter(format string, persistent bool) error {
	switch format {
	case "text":
		formatter := new(prefixed.TextFormatter)
		formatter.TimestampFormat = "2006-01-02 15:04:05"
		formatter.FullTimestamp = true
		// ANSI color codes are gibberish in log files.
		formatter.DisableColors = persistent
		logrus.SetFormatter(formatter)
	case "fluentd":
		logrus.SetFormatter(joonix.NewFormatter())
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "journald":
		journalhook.Enable()
	default:
		return fmt.Errorf("unknown log format %s", format)
	}
	return nil
}

func addLogWriter(w io.Writer) {
	mw := io.MultiWriter(logrus.StandardLogger().Out, w)
	logrus.SetOutput(mw)
}

// ConfigurePersistentLogging adds a log-to-file writer. File content is identical to stdout.
func ConfigurePersistentLogging(logFileName string) error {
	logrus.WithField("logFileName", logFileName).Info("Logs will be made persistent")
	// Only a missing parent is created; an existing one is left as the operator set it up.
	logDir := filepath.Dir(logFileName)
	hasDir, err := file.HasDir(logDir)
	if err != nil {
		return err
	}
	if !hasDir {
		if err := file.MkdirAll(logDir); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, params.SigningRecordIoConfig().ReadWritePermissions) // #nosec G304
	if err != nil {
		return err
	}

	addLogWriter(f)

	logrus.Info("File logging initialized")
	return nil
}

// MaskCredentialsLogging masks the url credentials before logging for security purpose
// [scheme:][//[userinfo@]host][/]path[?query][#fragment] -->  [scheme:][//[***]host][/***][#***]
// if the format is not matched nothing is done, string is returned as is.
func MaskCredentialsLogging(currUrl string) string {
	masked := currUrl
	u, err := url.Parse(currUrl)
	if err != nil {
		return currUrl
	}
	// Leave the scheme and host untouched.
	if u.User != nil {
		masked = strings.Replace(masked, u.User.String(), "***", 1)
	}
	if len(u.RequestURI()) > 1 {
		masked = strings.Replace(masked, u.RequestURI(), "/***", 1)
	}
	if len(u.Fragment) > 0 {
		masked = strings.Replace(masked, u.RawFragment, "***", 1)
	}
	return masked
}
