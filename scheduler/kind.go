package scheduler

import "strings"

// Kind 任务类型.
type Kind int

const (
	// KindOnce 延迟一次性任务：创建后自动启动，到期执行一次后终止.
	KindOnce Kind = iota + 1
	// KindPeriodic 周期任务：创建后立即执行一次，之后每隔 interval 执行.
	KindPeriodic
	// KindTrigger 触发任务：不自动启动，每次 Interrupt 后延迟 interval 执行一次.
	KindTrigger
)

// String 返回类型字符串.
func (k Kind) String() string {
	switch k {
	case KindOnce:
		return "once"
	case KindPeriodic:
		return "periodic"
	case KindTrigger:
		return "trigger"
	default:
		return "unknown"
	}
}

// Valid 检查类型是否有效.
func (k Kind) Valid() bool {
	return k >= KindOnce && k <= KindTrigger
}

// ParseKind 解析任务类型，大小写不敏感.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "once":
		return KindOnce, nil
	case "periodic":
		return KindPeriodic, nil
	case "trigger":
		return KindTrigger, nil
	default:
		return 0, ErrKindInvalid
	}
}
