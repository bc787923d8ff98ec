package entity

import "fmt"

// ApprovalLevel identifies one approval slot in the multi-level chain
type ApprovalLevel string

const (
	LevelOne     ApprovalLevel = "LEVEL1"
	LevelTwo     ApprovalLevel = "LEVEL2"
	LevelThree   ApprovalLevel = "LEVEL3"
	LevelFinance ApprovalLevel = "FINANCE"
)

// ParseApprovalLevel maps a request token to a known level
func ParseApprovalLevel(s string) (ApprovalLevel, error) {
	switch ApprovalLevel(s) {
	case LevelOne, LevelTwo, LevelThree, LevelFinance:
		return ApprovalLevel(s), nil
	default:
		return "", fmt.Errorf("unrecognized approval level %q", s)
	}
}

// String returns the string representation of the level
func (l ApprovalLevel) String() string {
	return string(l)
}
