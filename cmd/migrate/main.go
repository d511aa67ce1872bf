package main

import (
	"github.com/qooqz/certificates/internal/config"
	"github.com/qooqz/certificates/internal/database"
	"github.com/qooqz/certificates/internal/env"
	"github.com/qooqz/certificates/internal/model"
	"go.uber.org/zap"
)

func init() {
	env.LoadEnv(".env")
}

func main() {
	logger := zap.Must(zap.NewDevelopment()).Sugar()
	defer logger.Sync()
	cfg := config.GetConfig()

	logger.Infof("Database configuration: %+v", cfg.DB)

	db, err := database.ConnectReturnGormDB(cfg.DB)
	if err != nil {
		logger.Panic(err)
	}

	migrateErr := db.AutoMigrate(
		&model.Entity{},
		&model.CertificateRequest{},
		&model.RequestItem{},
		&model.RequestItemTranslation{},
		&model.CertificateVersion{},
		&model.IssuedCertificate{},
		&model.CertificateEdition{},
		&model.CertificateTemplate{},
		&model.Correction{},
		&model.Audit{},
		&model.CertificateLog{},
	)
	if migrateErr != nil {
		logger.Panic(migrateErr)
	}

	logger.Info("Migration complete")
}
