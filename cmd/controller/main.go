/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/trainava-labs/trainava/cmd/controller/frontend"
	"github.com/trainava-labs/trainava/cmd/controller/prometheus"
	"github.com/trainava-labs/trainava/cmd/controller/storage"
	"github.com/trainava-labs/trainava/cmd/controller/storage/gorm"
	"github.com/trainava-labs/trainava/cmd/controller/storage/memdb"
	"github.com/trainava-labs/trainava/cmd/controller/storage/postgres"
	"github.com/trainava-labs/trainava/cmd/internal/build"
	"github.com/trainava-labs/trainava/pkg/appmain"
	"github.com/trainava-labs/trainava/pkg/crypto"
	"github.com/trainava-labs/trainava/pkg/errors"
	"github.com/trainava-labs/trainava/pkg/sentry"
	"github.com/trainava-labs/trainava/pkg/server"
	"github.com/trainava-labs/trainava/pkg/task"
)

var (
	address = flag.String("address", "0.0.0.0:8080", "The address the controller listens on")

	certFile     = flag.String("cert-file", "", "")
	keyFile      = flag.String("key-file", "", "")
	generateCert = flag.Bool("generate-cert", false, "Generates a certificate for https")
	disableTls   = flag.Bool("disable-tls", true, "")

	enableMetrics = flag.Bool("enable-metrics", false, "Exposes prometheus metrics on /metrics")

	storageDriver = flag.String("storage", "memdb", "Storage driver: memdb, sqlite, gorm-postgres or postgres")
	storageDsn    = flag.String("storage-dsn", "", "Connection string for the storage driver, defaults to DATABASE_URL")
)

func openStorage(ctx context.Context) (storage.Storage, error) {
	dsn := *storageDsn
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}

	switch *storageDriver {
	case "memdb":
		return memdb.OpenStorage(ctx)

	case "sqlite":
		if dsn == "" {
			dsn = "trainava.db"
		}
		return gorm.OpenStorage(ctx, "sqlite", dsn)

	case "gorm-postgres":
		return gorm.OpenStorage(ctx, "postgres", dsn)

	case "postgres":
		return postgres.OpenStorage(ctx, dsn)
	}

	return nil, fmt.Errorf("invalid storage driver specified, %s", *storageDriver)
}

func main() {
	godotenv.Load()

	appmain.Run(appmain.Config{
		Name:    "Trainava Controller",
		Version: build.Version,
		SentryConfig: sentry.ClientOptions{
			Dsn:     os.Getenv("SENTRY_DSN"),
			Release: build.Version,
		},
	}, func(group task.Group) error {
		var err error

		storage, err := openStorage(group.Ctx())
		if err == nil {
			group.GoFn("Storage Close", func(group task.Group) error {
				<-group.Ctx().Done()
				return storage.Close()
			})
		}

		var tlsConfig *tls.Config

		if err == nil && !*disableTls {
			var certificate tls.Certificate
			if *certFile != "" && *keyFile != "" {
				certificate, err = tls.LoadX509KeyPair(*certFile, *keyFile)
			} else if *generateCert {
				certificate, err = crypto.GenerateCertificate()
			} else {
				err = errors.New("https is required, use both --cert-file and --key-file or --generate-cert")
			}

			if err == nil {
				tlsConfig = &tls.Config{
					Certificates: []tls.Certificate{certificate},
				}
			}
		}

		if err == nil {
			var httpServer *server.Server
			httpServer, err = server.NewServer(*address, tlsConfig)

			if err == nil {
				var webFrontend *frontend.Frontend
				webFrontend, err = frontend.NewFrontend(httpServer, storage)
				if err == nil {
					group.Go("Frontend", webFrontend)
				}

				if err == nil && *enableMetrics {
					var metrics *prometheus.Frontend
					metrics, err = prometheus.NewFrontend(httpServer, storage)
					if err == nil {
						group.Go("Prometheus", metrics)
					}
				}

				if err == nil {
					err = httpServer.Run(group)
				}
			}
		}

		if err != nil {
			group.Cancel()
		}

		return err
	})
}
