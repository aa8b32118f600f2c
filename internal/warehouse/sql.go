package warehouse

import (
	"fmt"
	"regexp"
	"strings"
)

// scaryKeywords are statement keywords that mutate or destroy warehouse
// state. ExecuteQuery refuses SQL containing them unless the caller
// acknowledges the risk, and the check runs before anything touches the
// connection.
var scaryKeywords = []string{
	"DELETE",
	"TRUNCATE",
	"DROP",
	"ALTER",
	"UPDATE",
	"INSERT",
	"MERGE",
}

var scaryPattern = func() *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(` + strings.Join(scaryKeywords, "|") + `)\b`)
}()

// ScaryKeywords returns the risky keywords found in sql, uppercased and
// deduplicated in order of first appearance.
func ScaryKeywords(sql string) []string {
	var found []string
	seen := make(map[string]bool)
	for _, m := range scaryPattern.FindAllString(sql, -1) {
		kw := strings.ToUpper(m)
		if !seen[kw] {
			seen[kw] = true
			found = append(found, kw)
		}
	}
	return found
}

// IsScarySQL reports whether sql contains any risky keyword.
func IsScarySQL(sql string) bool {
	return scaryPattern.MatchString(sql)
}

// ScarySQLError is returned when risky SQL is submitted without
// acknowledgement.
type ScarySQLError struct {
	Keywords []string
}

func (e *ScarySQLError) Error() string {
	return fmt.Sprintf("sql contains keywords that may alter warehouse data (%s); pass acknowledge_risk to run it anyway",
		strings.Join(e.Keywords, ", "))
}

// TableConflictError is returned when Create targets an existing object
// without overwrite.
type TableConflictError struct {
	FQTN string
}

func (e *TableConflictError) Error() string {
	return fmt.Sprintf("object %s already exists; pass overwrite to replace it", e.FQTN)
}
