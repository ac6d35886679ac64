package models

// 违规类型
const (
	ViolationOvertime           = "overtime"
	ViolationRestPeriod         = "rest_period"
	ViolationLicenseExpired     = "license_expired"
	ViolationLicenseExpiring    = "license_expiring"
	ViolationFatigue            = "fatigue"
	ViolationMaxConsecutiveDays = "max_consecutive_days"
	ViolationMaxShiftLength     = "max_shift_length"
	ViolationCertification      = "certification"
)

// 违规严重级别
const (
	SeverityWarning   = "warning"
	SeverityViolation = "violation"
	SeverityCritical  = "critical"
)

// 排班状态
const (
	ShiftScheduled  = "scheduled"
	ShiftInProgress = "in_progress"
	ShiftCompleted  = "completed"
	ShiftCancelled  = "cancelled"
	ShiftNoShow     = "no_show"
)

// 执照审核状态
const (
	LicensePending   = "pending"
	LicenseVerified  = "verified"
	LicenseExpired   = "expired"
	LicenseSuspended = "suspended"
	LicenseRejected  = "rejected"
)

// 事件严重级别
const (
	IncidentLow      = "low"
	IncidentMedium   = "medium"
	IncidentHigh     = "high"
	IncidentCritical = "critical"
)

// 事件状态
const (
	IncidentOpen          = "open"
	IncidentInvestigating = "investigating"
	IncidentEscalated     = "escalated"
	IncidentResolved      = "resolved"
	IncidentClosed        = "closed"
)

// 时间线操作类型
const (
	TimelineCreated        = "created"
	TimelineAssigned       = "assigned"
	TimelineNoteAdded      = "note_added"
	TimelineStatusChanged  = "status_changed"
	TimelineEscalated      = "escalated"
	TimelineAcknowledged   = "acknowledged"
	TimelineResolved       = "resolved"
	TimelineClosed         = "closed"
	TimelinePhotoAdded     = "photo_added"
	TimelineSignatureAdded = "signature_added"
	TimelineSLABreached    = "sla_breached"
)

// MaxEscalationLevel 事件升级级别上限（0=无, 1=经理, 2=管理员, 3=高管）
const MaxEscalationLevel = 3

// SLAPolicy 按严重级别的 SLA 策略（单位：分钟）
type SLAPolicy struct {
	ResponseMinutes     int // 首次响应时限
	ResolutionMinutes   int // 解决时限
	AutoEscalateMinutes int // 未确认自动升级延迟（0 = 不自动升级）
}

// SLADefaults 各严重级别的 SLA 默认值
var SLADefaults = map[string]SLAPolicy{
	IncidentCritical: {ResponseMinutes: 15, ResolutionMinutes: 120, AutoEscalateMinutes: 10},
	IncidentHigh:     {ResponseMinutes: 30, ResolutionMinutes: 240, AutoEscalateMinutes: 25},
	IncidentMedium:   {ResponseMinutes: 120, ResolutionMinutes: 1440, AutoEscalateMinutes: 90},
	IncidentLow:      {ResponseMinutes: 480, ResolutionMinutes: 4320, AutoEscalateMinutes: 0},
}

// 澳大利亚 Fair Work 合规阈值
const (
	MaxOrdinaryHoursPerWeek   = 38.0 // 每周普通工时上限
	CriticalOvertimeHours     = 50.0 // 超过此工时视为严重违规
	MinRestBetweenShiftsHours = 10.0 // 班次间最短休息
	CriticalRestHours         = 6.0  // 休息不足此时数视为严重违规
	MaxShiftLengthHours       = 14.0 // 单班次时长上限
	WarnShiftLengthHours      = 10.0 // 单班次疲劳预警阈值
	MaxConsecutiveDays        = 5    // 最多连续工作天数
)

// LicenseAlertDays 执照到期提醒阈值（天），固定按 90→7 降序遍历
var LicenseAlertDays = []int{90, 60, 30, 7}
