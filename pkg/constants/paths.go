package constants

// Пути health, ready, swagger и коллекции live-requests.
const (
	PathHealth       = "/health"
	PathReady        = "/ready"
	PathSwagger      = "/swagger"
	PathLiveRequests = "/live-requests"
)
