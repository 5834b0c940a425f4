package models

import "strings"

// Name is a person's name as recorded on ledger entries and loan records.
type Name struct {
	Given  string `gorm:"size:100" json:"given"`
	Middle string `gorm:"size:100" json:"middle"`
	Last   string `gorm:"size:100" json:"last"`
}

// SystemOfficer is the synthetic identity recorded on scheduler-generated
// transactions.
var SystemOfficer = Name{Given: "Admin"}

// Full returns the name formatted for display.
func (n Name) Full() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{n.Given, n.Middle, n.Last} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, " ")
}

// IsEmpty reports whether no name component is set.
func (n Name) IsEmpty() bool {
	return strings.TrimSpace(n.Given) == "" &&
		strings.TrimSpace(n.Middle) == "" &&
		strings.TrimSpace(n.Last) == ""
}
