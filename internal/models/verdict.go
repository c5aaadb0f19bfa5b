package models

// Verdict 安全评级（成分和产品共用）
type Verdict string

const (
	VerdictSafe    Verdict = "safe"
	VerdictCaution Verdict = "caution"
	VerdictAvoid   Verdict = "avoid"
	VerdictUnknown Verdict = "unknown"
)

// verdictSeverity 严重程度排序: avoid > caution > safe > unknown
var verdictSeverity = map[Verdict]int{
	VerdictAvoid:   3,
	VerdictCaution: 2,
	VerdictSafe:    1,
	VerdictUnknown: 0,
}

// Severity returns the precedence rank used for highest-severity-wins aggregation.
// Unrecognized values rank lowest, same as unknown.
func (v Verdict) Severity() int {
	return verdictSeverity[v]
}

// IsValid 检查是否为合法评级值
func (v Verdict) IsValid() bool {
	_, ok := verdictSeverity[v]
	return ok
}
