package config

import "os"

func IsDebug() bool {
	return os.Getenv("PARLEY_DEBUG") == "1"
}
