package evaluator

import (
	"context"
	"sort"
	"time"

	"github.com/masifmuhammad/SecureForce/internal/models"
)

// fakeShiftSource 仅用于单元测试（内存班次数据源）
type fakeShiftSource struct {
	shifts []models.Shift
	err    error
}

func (f *fakeShiftSource) ListCompletedInWindow(ctx context.Context, tenantID string, from, to time.Time) ([]models.Shift, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Shift
	for _, s := range f.shifts {
		if s.TenantID != tenantID || s.Status != models.ShiftCompleted {
			continue
		}
		if s.StartTime.Before(from) || s.StartTime.After(to) {
			continue
		}
		out = append(out, s)
	}
	sortShifts(out)
	return out, nil
}

func (f *fakeShiftSource) ListStartedSince(ctx context.Context, tenantID string, since time.Time) ([]models.Shift, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Shift
	for _, s := range f.shifts {
		if s.TenantID != tenantID || s.StartTime.Before(since) {
			continue
		}
		out = append(out, s)
	}
	sortShifts(out)
	return out, nil
}

// sortShifts 模拟仓库的 ORDER BY user_id, start_time
func sortShifts(shifts []models.Shift) {
	sort.Slice(shifts, func(i, j int) bool {
		ui, uj := "", ""
		if shifts[i].UserID != nil {
			ui = *shifts[i].UserID
		}
		if shifts[j].UserID != nil {
			uj = *shifts[j].UserID
		}
		if ui != uj {
			return ui < uj
		}
		return shifts[i].StartTime.Before(shifts[j].StartTime)
	})
}

// fakeLicenseSource 仅用于单元测试（内存执照数据源）
type fakeLicenseSource struct {
	licenses []models.GuardLicense
	err      error
}

func (f *fakeLicenseSource) ListVerifiedExpiringBy(ctx context.Context, tenantID string, cutoff time.Time) ([]models.GuardLicense, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.GuardLicense
	for _, l := range f.licenses {
		if l.TenantID != tenantID || l.VerificationStatus != models.LicenseVerified {
			continue
		}
		if l.ExpiryDate.After(cutoff) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// strPtr 测试辅助
func strPtr(s string) *string {
	return &s
}

// timePtr 测试辅助
func timePtr(t time.Time) *time.Time {
	return &t
}
