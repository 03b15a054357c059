package e

// This defines reusable error messages

const (
	MsgUnknownInternalServerError = "Unknown Internal Server Error"

	// config
	MsgConfigMissingEnv = "Missing required environment variables"
	MsgConfigInvalidURL = "Invalid Supabase project URL"

	// migration
	MsgMigrationConnFailed = "Database connection check failed"
	MsgMigrationNoVector   = "vector extension is not available"
	MsgMigrationFileDNE    = "Migration file does not exist"
	MsgMigrationStepFailed = "Migration step failed"

	// backup
	MsgBackupWriteFailed = "Could not write backup file"

	// gateway
	MsgGatewayBadStatus = "Unexpected status from backend service"

	// scaffold
	MsgScaffoldNoPath = "Template has no output path"
)
