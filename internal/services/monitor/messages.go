package monitor

import "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/domain/enums"

const fallbackMessage = "Phiên đăng nhập của bạn đã kết thúc. Vui lòng đăng nhập lại."

var reasonMessages = map[enums.TerminationReason]string{
	enums.TerminationNewLogin: "Tài khoản của bạn vừa được đăng nhập trên thiết bị khác.",
	enums.TerminationTimeout:  "Phiên đăng nhập đã hết hạn do không hoạt động trong thời gian dài.",
	enums.TerminationManual:   "Bạn đã đăng xuất khỏi phiên làm việc này.",
	enums.TerminationAdmin:    "Phiên đăng nhập của bạn đã bị quản trị viên chấm dứt.",
}

// MessageForReason maps a termination reason to the user-facing message.
// Unknown reasons fall back to a generic one.
func MessageForReason(reason enums.TerminationReason) string {
	if msg, ok := reasonMessages[reason]; ok {
		return msg
	}
	return fallbackMessage
}
