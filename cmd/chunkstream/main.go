package main

import (
	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/chunkstream/cmd/chunkstream/chunkstream"
	_ "github.com/openziti/chunkstream/cmd/chunkstream/pump"
	"github.com/sirupsen/logrus"
)

func init() {
	pfxlog.Global(logrus.InfoLevel)
	pfxlog.SetPrefix("github.com/openziti/")
}

func main() {
	if err := chunkstream.RootCmd.Execute(); err != nil {
		logrus.Fatalf("error (%v)", err)
	}
}
