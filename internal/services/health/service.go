package health

import (
	"context"
	"database/sql"
	"time"
)

const pingTimeout = 2 * time.Second

// Service reports the readiness of the pipeline's dependencies.
type Service struct {
	DB            *sql.DB
	ObjectStore   string
	LLMTransport  string
	LLMConfigured bool
}

// Report is the health payload.
type Report struct {
	OK            bool   `json:"ok"`
	Persistence   string `json:"persistence"`
	ObjectStore   string `json:"objectStore"`
	LLMTransport  string `json:"llmTransport"`
	LLMConfigured bool   `json:"llmConfigured"`
	Error         string `json:"error,omitempty"`
}

// NewService constructs a new health service.
func NewService(db *sql.DB, objectStore, llmTransport string, llmConfigured bool) *Service {
	return &Service{DB: db, ObjectStore: objectStore, LLMTransport: llmTransport, LLMConfigured: llmConfigured}
}

// Status pings the database when one is configured. A missing API key does not
// make the service unhealthy; analyses report it per request.
func (s *Service) Status(ctx context.Context) Report {
	report := Report{
		OK:            true,
		Persistence:   "memory",
		ObjectStore:   s.ObjectStore,
		LLMTransport:  s.LLMTransport,
		LLMConfigured: s.LLMConfigured,
	}
	if s.DB == nil {
		return report
	}
	report.Persistence = "postgres"
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		report.OK = false
		report.Error = "database unreachable"
	}
	return report
}
