package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/psu-powerlab/se2030/pkg/elog"
)

var (
	release = "0.0.0"
	commit  = ""
	date    = "Thu, 01 Jan 1970 00:00:00 +0000"
)

var log elog.Logger

func main() {
	commandInit()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	logrus.SetLevel(logrus.TraceLevel)
}
