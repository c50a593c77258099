// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

package main

import (
	"os"

	"github.com/ggloop/playguard/internal/cli"

	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	if err := cli.Execute(); err != nil {
		logrus.Errorf("playguard exited with error: %v", err)
		os.Exit(1)
	}
}
