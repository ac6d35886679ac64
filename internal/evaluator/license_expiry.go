package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/masifmuhammad/SecureForce/internal/models"
	"github.com/masifmuhammad/SecureForce/internal/timeutil"
)

// LicenseExpiryEvaluator 执照到期检查评估器
// 到期前 90/60/30/7 天分档提醒，已过期记 critical
type LicenseExpiryEvaluator struct {
	evaluator *Evaluator
}

// NewLicenseExpiryEvaluator 创建执照到期检查评估器
func NewLicenseExpiryEvaluator(evaluator *Evaluator) *LicenseExpiryEvaluator {
	return &LicenseExpiryEvaluator{
		evaluator: evaluator,
	}
}

// Evaluate 评估执照到期
// 阈值固定按 90→60→30→7 降序遍历（输出确定性依赖该顺序）；
// 一张执照可能命中多个阈值档，最后按 (userId, type, licenseId) 去重保留首条
func (e *LicenseExpiryEvaluator) Evaluate(ctx context.Context, tenantID string, now time.Time) ([]Candidate, error) {
	var results []Candidate

	for _, days := range models.LicenseAlertDays {
		cutoff := now.Add(time.Duration(days) * 24 * time.Hour)

		licenses, err := e.evaluator.licenses.ListVerifiedExpiringBy(ctx, tenantID, cutoff)
		if err != nil {
			return nil, fmt.Errorf("license expiry check: %w", err)
		}

		for _, license := range licenses {
			daysUntilExpiry := timeutil.CeilDays(license.ExpiryDate.Sub(now))

			if daysUntilExpiry < 0 {
				daysOverdue := -daysUntilExpiry
				results = append(results, Candidate{
					UserID:   license.UserID,
					Type:     models.ViolationLicenseExpired,
					Severity: models.SeverityCritical,
					Description: fmt.Sprintf("Security license %s expired %d days ago",
						license.LicenseNumber, daysOverdue),
					Details: e.evaluator.marshalDetails(models.LicenseExpiryDetails{
						LicenseID:     license.ID,
						LicenseNumber: license.LicenseNumber,
						LicenseClass:  license.LicenseClass,
						ExpiryDate:    license.ExpiryDate.Format(time.RFC3339),
						DaysOverdue:   &daysOverdue,
					}),
				})
			} else if daysUntilExpiry <= days {
				severity := models.SeverityWarning
				if daysUntilExpiry <= 7 {
					severity = models.SeverityCritical
				}

				daysUntil := daysUntilExpiry
				results = append(results, Candidate{
					UserID:   license.UserID,
					Type:     models.ViolationLicenseExpiring,
					Severity: severity,
					Description: fmt.Sprintf("Security license %s expires in %d days",
						license.LicenseNumber, daysUntilExpiry),
					Details: e.evaluator.marshalDetails(models.LicenseExpiryDetails{
						LicenseID:       license.ID,
						LicenseNumber:   license.LicenseNumber,
						LicenseClass:    license.LicenseClass,
						ExpiryDate:      license.ExpiryDate.Format(time.RFC3339),
						DaysUntilExpiry: &daysUntil,
					}),
				})
			}
		}
	}

	return dedupeByLicense(results), nil
}

// dedupeByLicense 按 (userId, type, licenseId) 去重，保留首条
func dedupeByLicense(results []Candidate) []Candidate {
	seen := make(map[string]bool)
	deduped := make([]Candidate, 0, len(results))

	for _, r := range results {
		key := r.UserID + "-" + r.Type + "-" + licenseIDFromDetails(r.Details)
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, r)
	}

	return deduped
}

// licenseIDFromDetails 从明细中取 licenseId（解析失败按空串参与去重键）
func licenseIDFromDetails(details json.RawMessage) string {
	var d models.LicenseExpiryDetails
	if err := json.Unmarshal(details, &d); err != nil {
		return ""
	}
	return d.LicenseID
}
