package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
)

// CLIOption 是传递给 NsrunCli 的函数式参数
type CLIOption func(cli *NsrunCli) error

// WithStandardStreams 使用进程的标准输入输出
func WithStandardStreams() CLIOption {
	return func(cli *NsrunCli) error {
		cli.in = os.Stdin
		cli.out = os.Stdout
		cli.err = os.Stderr
		logrus.SetOutput(os.Stderr)
		return nil
	}
}
