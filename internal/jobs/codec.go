package jobs

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EncodePayload marshals a typed payload after checking it matches the
// job type.
func EncodePayload(t Type, payload any) ([]byte, error) {
	if err := checkPayloadType(t, payload); err != nil {
		return nil, err
	}

	b, err := json.Marshal(payload)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	return b, nil
}

// DecodePayload unmarshals job.Payload into the correct typed payload struct.
func DecodePayload(j Job) (any, error) {
	if !j.Type.IsValid() {
		return nil, ErrInvalidJobType
	}
	if len(j.Payload) == 0 {
		return nil, ErrInvalidJobPayload
	}

	switch j.Type {
	case TypeMonthlyReportExport:
		var p MonthlyReportExportPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		return p, nil

	case TypeAbsenceDecisionNotice:
		var p AbsenceDecisionNoticePayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		return p, nil

	case TypeCorrectionDecisionNotice:
		var p CorrectionDecisionNoticePayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		return p, nil

	default:
		return nil, ErrInvalidJobType
	}
}

// ValidatePayload performs minimal validation on decoded payloads.
func ValidatePayload(t Type, payload any) error {
	trim := strings.TrimSpace

	switch t {
	case TypeMonthlyReportExport:
		p, err := asMonthlyReportExport(payload)
		if err != nil {
			return err
		}
		if trim(p.Month) == "" {
			return ErrInvalidJobPayload
		}
		return nil

	case TypeAbsenceDecisionNotice:
		p, err := asAbsenceDecisionNotice(payload)
		if err != nil {
			return err
		}
		if trim(p.AbsenceID) == "" || trim(p.UserID) == "" {
			return ErrInvalidJobPayload
		}
		return nil

	case TypeCorrectionDecisionNotice:
		p, err := asCorrectionDecisionNotice(payload)
		if err != nil {
			return err
		}
		if trim(p.CorrectionID) == "" || trim(p.UserID) == "" {
			return ErrInvalidJobPayload
		}
		return nil

	default:
		return ErrInvalidJobType
	}
}

func checkPayloadType(t Type, payload any) error {
	if !t.IsValid() {
		return ErrInvalidJobType
	}

	switch t {
	case TypeMonthlyReportExport:
		_, err := asMonthlyReportExport(payload)
		return err
	case TypeAbsenceDecisionNotice:
		_, err := asAbsenceDecisionNotice(payload)
		return err
	case TypeCorrectionDecisionNotice:
		_, err := asCorrectionDecisionNotice(payload)
		return err
	}

	return nil
}

func asMonthlyReportExport(payload any) (MonthlyReportExportPayload, error) {
	switch v := payload.(type) {
	case MonthlyReportExportPayload:
		return v, nil
	case *MonthlyReportExportPayload:
		return *v, nil
	default:
		return MonthlyReportExportPayload{}, ErrPayloadTypeMismatch
	}
}

func asAbsenceDecisionNotice(payload any) (AbsenceDecisionNoticePayload, error) {
	switch v := payload.(type) {
	case AbsenceDecisionNoticePayload:
		return v, nil
	case *AbsenceDecisionNoticePayload:
		return *v, nil
	default:
		return AbsenceDecisionNoticePayload{}, ErrPayloadTypeMismatch
	}
}

func asCorrectionDecisionNotice(payload any) (CorrectionDecisionNoticePayload, error) {
	switch v := payload.(type) {
	case CorrectionDecisionNoticePayload:
		return v, nil
	case *CorrectionDecisionNoticePayload:
		return *v, nil
	default:
		return CorrectionDecisionNoticePayload{}, ErrPayloadTypeMismatch
	}
}
