package config

const (
	// DefaultDatabasePath is the default path for the application database
	DefaultDatabasePath = "./health-records.db"

	// DefaultUploadDir is where uploaded archives are stored until imported
	DefaultUploadDir = "./uploads"

	// DefaultSourceLabel is written into the metadata of every imported resource
	DefaultSourceLabel = "facebook-archive"
)
