package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/masifmuhammad/SecureForce/internal/models"
	"github.com/masifmuhammad/SecureForce/internal/repository"
)

// 测试用内存存储，行为对齐仓库层的 SQL 语义

type fakeViolationStore struct {
	violations []models.ComplianceViolation
	createErr  error
	failType   string // 该类型的 CreateViolation 返回错误
}

func (f *fakeViolationStore) CreateViolation(ctx context.Context, v *models.ComplianceViolation) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.failType != "" && v.Type == f.failType {
		return fmt.Errorf("insert failed for type %s", v.Type)
	}
	f.violations = append(f.violations, *v)
	return nil
}

func (f *fakeViolationStore) GetViolation(ctx context.Context, tenantID, id string) (*models.ComplianceViolation, error) {
	for i := range f.violations {
		if f.violations[i].TenantID == tenantID && f.violations[i].ID == id {
			v := f.violations[i]
			return &v, nil
		}
	}
	return nil, fmt.Errorf("violation not found: %w", sql.ErrNoRows)
}

func (f *fakeViolationStore) ListViolations(ctx context.Context, tenantID string, filters repository.ViolationFilters) ([]models.ComplianceViolation, error) {
	var out []models.ComplianceViolation
	for _, v := range f.violations {
		if v.TenantID != tenantID {
			continue
		}
		if filters.Resolved != nil && v.IsResolved != *filters.Resolved {
			continue
		}
		if filters.UserID != nil && v.UserID != *filters.UserID {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeViolationStore) ResolveViolation(ctx context.Context, tenantID, id, resolvedBy, notes string, resolvedAt time.Time) error {
	for i := range f.violations {
		if f.violations[i].TenantID == tenantID && f.violations[i].ID == id {
			f.violations[i].IsResolved = true
			f.violations[i].ResolvedAt = &resolvedAt
			f.violations[i].ResolvedBy = &resolvedBy
			f.violations[i].ResolutionNotes = &notes
			return nil
		}
	}
	return fmt.Errorf("violation not found: %w", sql.ErrNoRows)
}

func (f *fakeViolationStore) CountOpen(ctx context.Context, tenantID, severity string) (int, error) {
	count := 0
	for _, v := range f.violations {
		if v.TenantID != tenantID || v.IsResolved {
			continue
		}
		if severity != "" && v.Severity != severity {
			continue
		}
		count++
	}
	return count, nil
}

type fakeIncidentStore struct {
	incidents map[string]*models.Incident
	updateErr error
}

func newFakeIncidentStore() *fakeIncidentStore {
	return &fakeIncidentStore{incidents: make(map[string]*models.Incident)}
}

func (f *fakeIncidentStore) CreateIncident(ctx context.Context, inc *models.Incident) error {
	clone := *inc
	f.incidents[inc.ID] = &clone
	return nil
}

func (f *fakeIncidentStore) GetIncident(ctx context.Context, tenantID, id string) (*models.Incident, error) {
	inc, ok := f.incidents[id]
	if !ok || inc.TenantID != tenantID {
		return nil, fmt.Errorf("incident not found: %w", sql.ErrNoRows)
	}
	clone := *inc
	return &clone, nil
}

func (f *fakeIncidentStore) UpdateIncident(ctx context.Context, inc *models.Incident) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	stored, ok := f.incidents[inc.ID]
	if !ok {
		return fmt.Errorf("incident not found: %w", sql.ErrNoRows)
	}
	stored.Status = inc.Status
	stored.AssignedToID = inc.AssignedToID
	stored.AcknowledgedAt = inc.AcknowledgedAt
	stored.ResolvedAt = inc.ResolvedAt
	stored.ClosedAt = inc.ClosedAt
	stored.UpdatedAt = inc.UpdatedAt
	return nil
}

func (f *fakeIncidentStore) ListUnbreachedPastDeadline(ctx context.Context, tenantID string, now time.Time) ([]models.Incident, error) {
	var out []models.Incident
	for _, inc := range f.incidents {
		if inc.TenantID != tenantID || inc.SLABreached {
			continue
		}
		if !inc.SLADeadline.Before(now) {
			continue
		}
		if inc.Status == models.IncidentResolved || inc.Status == models.IncidentClosed {
			continue
		}
		out = append(out, *inc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeIncidentStore) MarkSLABreached(ctx context.Context, tenantID, id string, now time.Time) (bool, error) {
	inc, ok := f.incidents[id]
	if !ok || inc.TenantID != tenantID || inc.SLABreached {
		return false, nil
	}
	inc.SLABreached = true
	inc.UpdatedAt = now
	return true, nil
}

func (f *fakeIncidentStore) BumpEscalation(ctx context.Context, tenantID, id string, now time.Time) (*models.Incident, error) {
	inc, ok := f.incidents[id]
	if !ok || inc.TenantID != tenantID {
		return nil, fmt.Errorf("incident not found: %w", sql.ErrNoRows)
	}
	if inc.EscalationLevel < models.MaxEscalationLevel {
		inc.EscalationLevel++
	}
	inc.Status = models.IncidentEscalated
	inc.UpdatedAt = now
	clone := *inc
	return &clone, nil
}

func (f *fakeIncidentStore) CountByStatus(ctx context.Context, tenantID, status string) (int, error) {
	count := 0
	for _, inc := range f.incidents {
		if inc.TenantID == tenantID && inc.Status == status {
			count++
		}
	}
	return count, nil
}

func (f *fakeIncidentStore) CountBreachedOpen(ctx context.Context, tenantID string) (int, error) {
	count := 0
	for _, inc := range f.incidents {
		if inc.TenantID != tenantID || !inc.SLABreached {
			continue
		}
		if inc.Status == models.IncidentResolved || inc.Status == models.IncidentClosed {
			continue
		}
		count++
	}
	return count, nil
}

type fakeTimelineStore struct {
	entries   []models.IncidentTimeline
	appendErr error
}

func (f *fakeTimelineStore) AppendTimeline(ctx context.Context, entry *models.IncidentTimeline) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeTimelineStore) ListTimeline(ctx context.Context, tenantID, incidentID string) ([]models.IncidentTimeline, error) {
	var out []models.IncidentTimeline
	for _, e := range f.entries {
		if e.TenantID == tenantID && e.IncidentID == incidentID {
			out = append(out, e)
		}
	}
	return out, nil
}

// actionsFor 提取某个事件的时间线操作序列
func (f *fakeTimelineStore) actionsFor(incidentID string) []string {
	var actions []string
	for _, e := range f.entries {
		if e.IncidentID == incidentID {
			actions = append(actions, e.Action)
		}
	}
	return actions
}

type emittedEvent struct {
	name    string
	payload interface{}
}

type fakeBus struct {
	emitted []emittedEvent
}

func (f *fakeBus) Emit(ctx context.Context, event string, payload interface{}) {
	f.emitted = append(f.emitted, emittedEvent{name: event, payload: payload})
}

func (f *fakeBus) eventNames() []string {
	var names []string
	for _, e := range f.emitted {
		names = append(names, e.name)
	}
	return names
}

type scheduledTask struct {
	name    string
	payload interface{}
	delay   time.Duration
}

type fakeScheduler struct {
	scheduled   []scheduledTask
	scheduleErr error
}

func (f *fakeScheduler) Schedule(ctx context.Context, name string, payload interface{}, delay time.Duration) error {
	if f.scheduleErr != nil {
		return f.scheduleErr
	}
	f.scheduled = append(f.scheduled, scheduledTask{name: name, payload: payload, delay: delay})
	return nil
}

type fakeLicenseCounter struct {
	count int
}

func (f *fakeLicenseCounter) CountVerifiedExpiringBy(ctx context.Context, tenantID string, cutoff time.Time) (int, error) {
	return f.count, nil
}
