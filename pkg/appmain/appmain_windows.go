/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package appmain

import (
	"errors"
	"os"

	"github.com/kolesnikovae/go-winjob"

	"github.com/trainava-labs/trainava/pkg/logger"
	pkgWinjob "github.com/trainava-labs/trainava/pkg/winjob"
)

type jobObject struct {
	object *winjob.JobObject
}

func (job *jobObject) Close() error {
	if job.object != nil {
		return job.object.Close()
	}

	return nil
}

func newJobObject() closable {
	job, err := pkgWinjob.CreateAnonymous(winjob.WithKillOnJobClose())
	if err == nil {
		var process *os.Process
		process, err = os.FindProcess(os.Getpid())
		if err == nil {
			err = job.Assign(process)
		} else {
			err = errors.Join(err, job.Close())
			job = nil
		}
	}

	if err != nil {
		logger.Error("unable to create job object, ", err)
	}

	return &jobObject{
		object: job,
	}
}
