/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package build

import "fmt"

var (
	Major    = 0
	Minor    = 1
	Revision = 0

	Version = fmt.Sprintf("%d.%d.%d", Major, Minor, Revision)
)
