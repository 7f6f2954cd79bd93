package common

// Argument names shared by the hub tools.
const (
	ArgIntegrationID = "integrationId"
	ArgEmail         = "email"
)

// StringArg returns the string argument key, or "" when it is missing or
// not a string.
func StringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}
