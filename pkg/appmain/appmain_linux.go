/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package appmain

type jobObject struct{}

func (job *jobObject) Close() error {
	return nil
}

func newJobObject() closable {
	return &jobObject{}
}
