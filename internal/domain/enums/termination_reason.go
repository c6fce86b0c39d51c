package enums

type TerminationReason string

const (
	TerminationNewLogin TerminationReason = "new_login"
	TerminationTimeout  TerminationReason = "timeout"
	TerminationManual   TerminationReason = "manual"
	TerminationAdmin    TerminationReason = "admin"
)

func (r TerminationReason) Valid() bool {
	switch r {
	case TerminationNewLogin, TerminationTimeout, TerminationManual, TerminationAdmin:
		return true
	}
	return false
}
