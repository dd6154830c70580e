package models

import "errors"

var (
	ErrInvalidStatus           = errors.New("invalid application status")
	ErrInvalidStatusTransition = errors.New("invalid application status change")
)

// reopenTransitions are the only moves out of a decided status. A decided
// application is frozen unless the same write moves it back to handling.
var reopenTransitions = map[ApplicationStatus]ApplicationStatus{
	ApplicationStatusAccepted: ApplicationStatusHandling,
	ApplicationStatusRejected: ApplicationStatusHandling,
}

// applicantTransitions are the status changes an applicant may request:
// submitting a draft and returning requested information.
var applicantTransitions = map[ApplicationStatus]ApplicationStatus{
	ApplicationStatusDraft:                       ApplicationStatusReceived,
	ApplicationStatusAdditionalInformationNeeded: ApplicationStatusHandling,
}

// IsApplicantEditable reports whether an applicant may edit an application in
// the given status.
func IsApplicantEditable(status ApplicationStatus) (bool, error) {
	if !status.IsValid() {
		return false, ErrInvalidStatus
	}
	return status == ApplicationStatusDraft ||
		status == ApplicationStatusAdditionalInformationNeeded, nil
}

// IsHandlerEditable reports whether a handler may edit an application in the
// given status. newStatus is the status requested in the same write, or nil.
func IsHandlerEditable(status ApplicationStatus, newStatus *ApplicationStatus) (bool, error) {
	if !status.IsValid() {
		return false, ErrInvalidStatus
	}
	if newStatus != nil && !newStatus.IsValid() {
		return false, ErrInvalidStatusTransition
	}

	if newStatus != nil {
		if target, ok := reopenTransitions[status]; ok && target == *newStatus {
			return true, nil
		}
	}

	// drafts may be edited by the handler when entering data from a paper application
	switch status {
	case ApplicationStatusDraft,
		ApplicationStatusReceived,
		ApplicationStatusHandling,
		ApplicationStatusAdditionalInformationNeeded:
		return true, nil
	}
	return false, nil
}

// IsEditable dispatches on the actor role. Unauthenticated callers are refused
// unless mockMode is on, in which case they get the union of the handler and
// applicant rules.
func IsEditable(role ActorRole, status ApplicationStatus, mockMode bool) (bool, error) {
	switch role {
	case ActorRoleHandler:
		return IsHandlerEditable(status, nil)
	case ActorRoleApplicant:
		return IsApplicantEditable(status)
	case ActorRoleUnauthenticated:
		if !mockMode {
			if !status.IsValid() {
				return false, ErrInvalidStatus
			}
			return false, nil
		}
		handlerEditable, err := IsHandlerEditable(status, nil)
		if err != nil {
			return false, err
		}
		applicantEditable, err := IsApplicantEditable(status)
		if err != nil {
			return false, err
		}
		return handlerEditable || applicantEditable, nil
	}
	return false, nil
}

// IsApplicantTransition reports whether an applicant may move an application
// from one status to another.
func IsApplicantTransition(from, to ApplicationStatus) (bool, error) {
	if !from.IsValid() {
		return false, ErrInvalidStatus
	}
	if !to.IsValid() {
		return false, ErrInvalidStatusTransition
	}
	target, ok := applicantTransitions[from]
	return ok && target == to, nil
}
