package flag

import (
	"fmt"
	"os"

	"github.com/DeJeune/nsrun/cli/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

type ClientOptions struct {
	Debug      bool
	LogLevel   string
	LogFormat  string
	CgroupRoot string
}

func NewClientOptions() *ClientOptions {
	return &ClientOptions{}
}

// InstallFlags 添加全局flag
func (o *ClientOptions) InstallFlags(flags *pflag.FlagSet) {
	flags.BoolVarP(&o.Debug, "debug", "D", false, "Enable debug mode")
	flags.StringVarP(&o.LogLevel, "log-level", "l", "info", `Set the logging level ("debug", "info", "warn", "error", "fatal")`)
	flags.StringVar(&o.LogFormat, "log-format", "text", `Set the logging format ("text", "json")`)
	flags.StringVar(&o.CgroupRoot, "cgroup-root", "", fmt.Sprintf("Parent cgroup of the containers (default %q, or $%s)", config.DefaultCgroupRoot(), config.EnvOverrideCgroupRoot))
}

// SetLogLevel 设置日志等级
func SetLogLevel(logLevel string) {
	if logLevel != "" {
		lvl, err := logrus.ParseLevel(logLevel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to parse logging level: %s\n", logLevel)
			os.Exit(1)
		}
		logrus.SetLevel(lvl)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// SetLogFormat 设置日志格式
func SetLogFormat(format string) {
	switch format {
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		fmt.Fprintf(os.Stderr, "Unsupported logging format: %s\n", format)
		os.Exit(1)
	}
}
