package usecase

// Tool describes one entry of the fixed tool catalog
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
}

// transactionPolicy governs the transaction envelope of one tool.
//
// insert and delete deliberately issue no commit even though they run in a
// read-write transaction: their effects are discarded by the cleanup
// rollback. This reproduces the long-observed behavior of this server and
// is asserted by tests; if the policy is ever corrected, flipping
// commitOnSuccess here is the whole change.
type transactionPolicy struct {
	readOnly        bool
	commitOnSuccess bool
	successMessage  string
}

var toolPolicies = map[string]transactionPolicy{
	"query":  {readOnly: true, commitOnSuccess: false},
	"create": {readOnly: false, commitOnSuccess: true, successMessage: "Table created successfully"},
	"insert": {readOnly: false, commitOnSuccess: false, successMessage: "Data inserted successfully"},
	"update": {readOnly: false, commitOnSuccess: true, successMessage: "Data updated successfully"},
	"delete": {readOnly: false, commitOnSuccess: false, successMessage: "Data deleted successfully"},
}

// toolCatalog is the static five-entry catalog. It is not derived from the
// database and never changes at runtime.
var toolCatalog = []Tool{
	{
		Name:        "query",
		Description: "Run a read-only SQL query",
		InputSchema: sqlInputSchema("SQL query to execute"),
	},
	{
		Name:        "create",
		Description: "Create a new table in the database",
		InputSchema: sqlInputSchema("CREATE TABLE statement to execute"),
	},
	{
		Name:        "insert",
		Description: "Insert new data into a table",
		InputSchema: sqlInputSchema("INSERT statement to execute"),
	},
	{
		Name:        "update",
		Description: "Update existing data in a table",
		InputSchema: sqlInputSchema("UPDATE statement to execute"),
	},
	{
		Name:        "delete",
		Description: "Delete data from a table",
		InputSchema: sqlInputSchema("DELETE statement to execute"),
	},
}

// sqlInputSchema builds the shared input contract: exactly one required
// string field named sql.
func sqlInputSchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"sql": map[string]interface{}{
				"type":        "string",
				"description": description,
			},
		},
		"required": []string{"sql"},
	}
}

// ListTools returns the static tool catalog in declaration order
func ListTools() []Tool {
	tools := make([]Tool, len(toolCatalog))
	copy(tools, toolCatalog)
	return tools
}
