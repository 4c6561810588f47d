/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package logger

import (
	"flag"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var (
	quiet       = flag.Bool("quiet", false, "Disables all logging output")
	logLevelArg = flag.String("log-level", "info", "Sets the maximum level of output [Fatal, Error, Warning, Info (Default), Debug]")
	logFile     = flag.String("log-file", "", "")
	logFormat   = flag.String("log-format", "console", "Set the format of the logging [console, json]")

	logLevel zap.AtomicLevel

	logger        *zap.Logger        = nil
	sugaredLogger *zap.SugaredLogger = nil
	options       []zap.Option
)

func LogLevelAsString() string {
	return logLevel.String()
}

func AddOption(option zap.Option) {
	options = append(options, option)
}

func Configure() error {
	var err error

	logLevel, err = zap.ParseAtomicLevel(strings.ToLower(strings.TrimSpace(*logLevelArg)))
	if err != nil {
		return err
	}

	config := zap.NewDevelopmentConfig()
	config.Encoding = *logFormat
	config.Level = logLevel
	if *logFile != "" {
		config.OutputPaths = []string{
			*logFile,
		}
	}
	// Skip our logger api
	AddOption(zap.AddCallerSkip(1))

	if *quiet {
		logger = zap.NewNop()
	} else {
		logger, err = config.Build(options...)
		if err != nil {
			return fmt.Errorf("failed to initialize logger, %w", err)
		}
	}

	sugaredLogger = logger.Sugar()
	return nil
}

func Close() {
	logger.Sync()
}

func Fatal(v ...any) {
	sugaredLogger.Panic(v...)
}

func Fatalf(format string, v ...any) {
	sugaredLogger.Panicf(format, v...)
}

func Panic(v ...any) {
	sugaredLogger.Panic(v...)
}

func Panicf(format string, v ...any) {
	sugaredLogger.Panicf(format, v...)
}

func Error(v ...any) {
	sugaredLogger.Error(v...)
}

func Errorf(format string, v ...any) {
	sugaredLogger.Errorf(format, v...)
}

func Warning(v ...any) {
	sugaredLogger.Warn(v...)
}

func Warningf(format string, v ...any) {
	sugaredLogger.Warnf(format, v...)
}

func Info(v ...any) {
	sugaredLogger.Info(v...)
}

func Infof(format string, v ...any) {
	sugaredLogger.Infof(format, v...)
}

func Debug(v ...any) {
	sugaredLogger.Debug(v...)
}

func Debugf(format string, v ...any) {
	sugaredLogger.Debugf(format, v...)
}
