package logging

// Component names attached to structured log lines so subsystems can be
// filtered without grepping message text.
const (
	ComponentStartup   = "startup"
	ComponentDatabase  = "database"
	ComponentBootstrap = "bootstrap"
	ComponentAuth      = "auth"
	ComponentWorker    = "render-worker"
	ComponentCleanup   = "cleanup"
	ComponentStorage   = "storage"
	ComponentEvents    = "events"
	ComponentAPI       = "api"
)
