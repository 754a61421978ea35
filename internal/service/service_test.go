package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/incident-service/internal/config"
	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/events"
	"github.com/spec-kit/incident-service/internal/repository"
)

func testConfig() config.Config {
	return config.Config{
		App: config.AppConfig{PublicBaseURL: "http://airport.test"},
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTLMinutes:   60,
			PasswordResetTTLMinutes: 30,
			BcryptCost:              4,
		},
		Incidents: config.IncidentsConfig{ListLimit: 200},
	}
}

type sentMail struct {
	to  string
	url string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, to, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, url: resetURL})
	return nil
}

func (m *fakeMailer) lastToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	url := m.sent[len(m.sent)-1].url
	idx := strings.LastIndex(url, "/")
	return url[idx+1:]
}

// fakeLimiter allows the first limit hits per key.
type fakeLimiter struct {
	mu    sync.Mutex
	limit int
	hits  map[string]int
}

func newFakeLimiter(limit int) *fakeLimiter {
	return &fakeLimiter{limit: limit, hits: map[string]int{}}
}

func (l *fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hits[key]++
	return l.hits[key] <= l.limit, nil
}

type recordedEvents struct {
	mu    sync.Mutex
	types []events.EventType
}

func (r *recordedEvents) subscribe(d events.Dispatcher) {
	for _, eventType := range events.AllIncidentEvents {
		d.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.types = append(r.types, e.Type)
			return nil
		})
	}
}

func (r *recordedEvents) list() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.EventType(nil), r.types...)
}

type incidentFixture struct {
	service  *IncidentService
	repo     *repository.MemoryIncidentRepository
	recorded *recordedEvents
}

func newIncidentFixture(t *testing.T, mutate func(*config.Config)) incidentFixture {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	repo := repository.NewMemoryIncidentRepository()
	dispatcher := events.NewInMemoryDispatcher(nil)
	recorded := &recordedEvents{}
	recorded.subscribe(dispatcher)
	svc := NewIncidentService(cfg, IncidentDependencies{
		IncidentRepo: repo,
		Dispatcher:   dispatcher,
		SOSLimiter:   newFakeLimiter(2),
	})
	return incidentFixture{service: svc, repo: repo, recorded: recorded}
}

var (
	passenger = domain.Identity{SubjectID: "8d3f5a9e-1111-4c1e-9f00-000000000001", Role: domain.RolePassenger, Name: "Pat Passenger", Email: "pat@example.com"}
	staffAna  = domain.Identity{SubjectID: "8d3f5a9e-2222-4c1e-9f00-000000000002", Role: domain.RoleStaff, Name: "Ana", Email: "ana@airport.example", StaffID: "STF-ANA001", Department: domain.DepartmentSecurity}
	staffBo   = domain.Identity{SubjectID: "8d3f5a9e-3333-4c1e-9f00-000000000003", Role: domain.RoleStaff, Name: "Bo", Email: "bo@airport.example", StaffID: "STF-BO0002", Department: domain.DepartmentSanitation}
)

func validCreate(sector domain.Sector) CreateIncidentInput {
	return CreateIncidentInput{
		Title:       "Broken scanner",
		Description: "Gate scanner rejects every pass",
		Location:    "Gate A4",
		Sector:      sector,
		SubCategory: "Boarding pass scanner",
		Priority:    domain.PriorityHigh,
	}
}
