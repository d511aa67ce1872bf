package appcontext

import (
	"github.com/qooqz/certificates/internal/auth"
	"github.com/qooqz/certificates/internal/config"
	"github.com/qooqz/certificates/internal/lifecycle"
	"github.com/qooqz/certificates/internal/pipeline"
	"github.com/qooqz/certificates/internal/repository"
	"github.com/qooqz/certificates/internal/verification"
	"go.uber.org/zap"
)

// Application contains core dependencies for the app.
type Application struct {
	// Config holds application settings provided from .env file.
	Config *config.Config

	Logger *zap.SugaredLogger

	// Repository provides access to data storage operations.
	Repository *repository.Repository

	// Lifecycle owns the request state machine and issuance.
	Lifecycle *lifecycle.Service

	// Pipeline derives QR and PDF assets for issued certificates.
	Pipeline *pipeline.Pipeline

	// Verification answers public verification lookups.
	Verification *verification.Service

	// JWTService manages JWT operations for authentication such as generate, verify, refresh token.
	JWTService auth.JWTInterface
}
