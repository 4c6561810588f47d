/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package training

import (
	"os"
	"testing"

	"github.com/trainava-labs/trainava/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Configure(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}
