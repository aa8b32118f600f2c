package chain

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/leapstack-labs/sqlchain/internal/warehouse"
	"github.com/leapstack-labs/sqlchain/pkg/identifier"
)

// fragmentFunc renders one transform given the running SQL of the steps
// before it.
type fragmentFunc func(ctx context.Context, t *Transform, runningSQL string) (string, error)

// assembleCTEChain renders the transforms into one nested CTE statement.
// Every non-terminal fragment becomes a named CTE; the terminal fragment is
// the select the statement resolves to. A table or view type prepends a
// CREATE OR REPLACE wrapper for the terminal transform's FQTN.
func assembleCTEChain(ctx context.Context, transforms []*Transform, tableType warehouse.TableType, scheme identifier.Scheme, render fragmentFunc) (string, error) {
	if len(transforms) == 1 {
		t := transforms[0]
		sql, err := render(ctx, t, "")
		if err != nil {
			return "", err
		}
		create, err := createStatement(tableType, t, scheme)
		if err != nil {
			return "", err
		}
		return create + sql, nil
	}

	var (
		cteList     []string
		runningSQL  string
		createStmt  string
		finalSelect string
	)
	for i, t := range transforms {
		sql, err := render(ctx, t, runningSQL)
		if err != nil {
			return "", err
		}
		if i == len(transforms)-1 {
			finalSelect = collapseCTE(sql)
			createStmt, err = createStatement(tableType, t, scheme)
			if err != nil {
				return "", err
			}
			continue
		}
		// The running SQL is the chain state up to this transform. The next
		// transform consumes it when it needs to inspect mid-chain data.
		runningSQL = constructRunningSQL(cteList, sql)
		cteList = append(cteList, t.OutputAlias+" AS (\n"+sql+"\n) ")
	}
	return createStmt + "WITH " + strings.Join(cteList, ", \n") + finalSelect, nil
}

// assembleViewChain renders the transforms into one CREATE OR REPLACE VIEW
// statement per transform. Each view selects from the views before it, so the
// statements must run in order.
func assembleViewChain(ctx context.Context, transforms []*Transform, scheme identifier.Scheme, render fragmentFunc) (string, error) {
	var (
		viewList   []string
		cteList    []string
		runningSQL string
	)
	for _, t := range transforms {
		sql, err := render(ctx, t, runningSQL)
		if err != nil {
			return "", err
		}
		fqtn, err := t.FQTN(scheme)
		if err != nil {
			return "", err
		}
		runningSQL = constructRunningSQL(cteList, sql)
		cteList = append(cteList, t.OutputAlias+" AS (\n"+sql+"\n) ")
		viewList = append(viewList, "CREATE OR REPLACE VIEW "+fqtn+" AS "+sql+";")
	}
	return strings.Join(viewList, "\n"), nil
}

var leadingWith = regexp.MustCompile(`(?i)^WITH\s`)

// collapseCTE folds a fragment that is itself a CTE statement into an
// enclosing one by replacing its leading WITH with a continuation comma.
func collapseCTE(sql string) string {
	if loc := leadingWith.FindStringIndex(sql); loc != nil {
		return ", " + sql[loc[1]:]
	}
	return sql
}

// constructRunningSQL combines the accumulated CTEs with the current
// fragment into one runnable statement.
func constructRunningSQL(cteList []string, sql string) string {
	if len(cteList) == 0 {
		return sql
	}
	return "WITH " + strings.Join(cteList, ", \n") + collapseCTE(sql)
}

// createStatement returns the DDL wrapper for a table or view render, or an
// empty string for a plain select.
func createStatement(tableType warehouse.TableType, t *Transform, scheme identifier.Scheme) (string, error) {
	if tableType == "" {
		return "", nil
	}
	tt, err := warehouse.CheckWriteTableType(string(tableType))
	if err != nil {
		return "", err
	}
	fqtn, err := t.FQTN(scheme)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CREATE OR REPLACE %s %s AS \n", strings.ToUpper(string(tt)), fqtn), nil
}
