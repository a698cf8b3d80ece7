package domain

// LogbookStatus represents the lifecycle state of a weekly logbook.
type LogbookStatus string

const (
	StatusDraft            LogbookStatus = "draft"
	StatusSubmitted        LogbookStatus = "submitted"
	StatusUnderReview      LogbookStatus = "under_review"
	StatusChangesRequested LogbookStatus = "changes_requested"
	StatusApproved         LogbookStatus = "approved"
	StatusLocked           LogbookStatus = "locked"
)

func (s LogbookStatus) String() string { return string(s) }

func (s LogbookStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusUnderReview,
		StatusChangesRequested, StatusApproved, StatusLocked:
		return true
	}
	return false
}

// IsTerminal reports whether the status ends a review cycle.
func (s LogbookStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusLocked
}

// TransitionAction is an actor-initiated (or system-initiated) lifecycle action.
type TransitionAction string

const (
	ActionSubmit      TransitionAction = "submit"
	ActionBeginReview TransitionAction = "begin_review"
	ActionApprove     TransitionAction = "approve"
	ActionReject      TransitionAction = "reject"
	ActionResubmit    TransitionAction = "resubmit"
	ActionLock        TransitionAction = "lock"
)

func (a TransitionAction) String() string { return string(a) }

func (a TransitionAction) IsValid() bool {
	switch a {
	case ActionSubmit, ActionBeginReview, ActionApprove, ActionReject,
		ActionResubmit, ActionLock:
		return true
	}
	return false
}

// UserRole represents the authorization level of a portal user.
type UserRole string

const (
	UserRoleTrainee    UserRole = "trainee"
	UserRoleSupervisor UserRole = "supervisor"
	UserRoleAdmin      UserRole = "admin"
)

func (r UserRole) String() string { return string(r) }

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleTrainee, UserRoleSupervisor, UserRoleAdmin:
		return true
	}
	return false
}

func (r UserRole) IsAdmin() bool {
	return r == UserRoleAdmin
}

// SectionType identifies one of the three fixed sections of a logbook.
type SectionType string

const (
	SectionPractice    SectionType = "A" // practice hours
	SectionDevelopment SectionType = "B" // professional development
	SectionSupervision SectionType = "C" // supervision
)

func (s SectionType) String() string { return string(s) }

func (s SectionType) IsValid() bool {
	switch s {
	case SectionPractice, SectionDevelopment, SectionSupervision:
		return true
	}
	return false
}

// HourCategory classifies a typed hour record.
type HourCategory string

const (
	HourCategoryDCC         HourCategory = "dcc"
	HourCategoryCRA         HourCategory = "cra"
	HourCategoryDevelopment HourCategory = "professional_development"
	HourCategorySupervision HourCategory = "supervision"
)

func (c HourCategory) String() string { return string(c) }

func (c HourCategory) IsValid() bool {
	switch c {
	case HourCategoryDCC, HourCategoryCRA, HourCategoryDevelopment, HourCategorySupervision:
		return true
	}
	return false
}

// SupervisionMode distinguishes how a supervision session was delivered.
type SupervisionMode string

const (
	SupervisionIndividual SupervisionMode = "individual"
	SupervisionGroup      SupervisionMode = "group"
)

func (m SupervisionMode) String() string { return string(m) }

func (m SupervisionMode) IsValid() bool {
	return m == SupervisionIndividual || m == SupervisionGroup
}

// UnlockStatus represents the state of an unlock request.
type UnlockStatus string

const (
	UnlockPending UnlockStatus = "pending"
	UnlockGranted UnlockStatus = "granted"
	UnlockDenied  UnlockStatus = "denied"
	UnlockExpired UnlockStatus = "expired"
)

func (s UnlockStatus) String() string { return string(s) }

func (s UnlockStatus) IsValid() bool {
	switch s {
	case UnlockPending, UnlockGranted, UnlockDenied, UnlockExpired:
		return true
	}
	return false
}

// CommentScope indicates what a comment is attached to.
type CommentScope string

const (
	ScopeRecord   CommentScope = "record"
	ScopeSection  CommentScope = "section"
	ScopeDocument CommentScope = "document"
)

func (s CommentScope) String() string { return string(s) }

func (s CommentScope) IsValid() bool {
	switch s {
	case ScopeRecord, ScopeSection, ScopeDocument:
		return true
	}
	return false
}

// AuditAction represents the kind of state change recorded in the audit trail.
type AuditAction string

const (
	AuditSubmit         AuditAction = "submit"
	AuditBeginReview    AuditAction = "begin_review"
	AuditApprove        AuditAction = "approve"
	AuditReject         AuditAction = "reject"
	AuditResubmit       AuditAction = "resubmit"
	AuditLock           AuditAction = "lock"
	AuditUnlockRequest  AuditAction = "unlock_requested"
	AuditUnlockGrant    AuditAction = "unlock_granted"
	AuditUnlockDeny     AuditAction = "unlock_denied"
	AuditUnlockExpiry   AuditAction = "unlock_expiry"
	AuditCommentAdded   AuditAction = "comment_added"
	AuditEntryEdited    AuditAction = "entry_edited"
	AuditSectionEdited  AuditAction = "section_edited"
	AuditProgramCreated AuditAction = "program_created"
)

func (a AuditAction) String() string { return string(a) }

func (a AuditAction) IsValid() bool {
	switch a {
	case AuditSubmit, AuditBeginReview, AuditApprove, AuditReject, AuditResubmit,
		AuditLock, AuditUnlockRequest, AuditUnlockGrant, AuditUnlockDeny,
		AuditUnlockExpiry, AuditCommentAdded, AuditEntryEdited,
		AuditSectionEdited, AuditProgramCreated:
		return true
	}
	return false
}

// TrafficLight summarizes progress against a prorated target.
type TrafficLight string

const (
	TrafficGreen TrafficLight = "green"
	TrafficAmber TrafficLight = "amber"
	TrafficRed   TrafficLight = "red"
)

func (t TrafficLight) String() string { return string(t) }

// ComplianceStatus summarizes supervision composition against its thresholds.
type ComplianceStatus string

const (
	ComplianceCompliant    ComplianceStatus = "compliant"
	ComplianceWarning      ComplianceStatus = "warning"
	ComplianceNonCompliant ComplianceStatus = "non_compliant"
)

func (s ComplianceStatus) String() string { return string(s) }

// QualificationTier fixes the target hour constants for a registrar program.
type QualificationTier string

const (
	TierMasters   QualificationTier = "masters"
	TierCombined  QualificationTier = "combined"
	TierDoctorate QualificationTier = "doctorate"
)

func (t QualificationTier) String() string { return string(t) }

func (t QualificationTier) IsValid() bool {
	switch t {
	case TierMasters, TierCombined, TierDoctorate:
		return true
	}
	return false
}
