package main

type Settings struct {
	Port        int    `env:"PORT,default=8000"`
	BasePath    string `env:"BASE_PATH,default=/"`
	LogEncoding string `env:"LOG_ENCODING,default=console"`

	MongoDBURI string `env:"MONGODB_URI,default=mongodb://localhost:27017"`
	Database   string `env:"DATABASE,default=chatrelay"`

	JWTSecret string `env:"JWT_SECRET,required=true"`

	// GroupAuth makes joinGroup consult the authoritative member list before
	// subscribing a connection. Off by default: the relay then trusts
	// caller-supplied identifiers entirely.
	GroupAuth bool `env:"GROUP_AUTH,default=false"`
}
