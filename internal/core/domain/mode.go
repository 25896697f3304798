package domain

type Mode string

const (
	ModeHome     Mode = "home"
	ModeScanning Mode = "scanning"
)
