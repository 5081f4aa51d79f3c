package config

type Config struct {
	RegistryAddr string
}
