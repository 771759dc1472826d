package at

// ConfigField identifies one of the module settings a transaction concerns.
type ConfigField int

const (
	FieldUart ConfigField = iota
	FieldName
	FieldPassword
	FieldRole

	// FieldCount is one past the last field, for sizing arrays indexed
	// by ConfigField.
	FieldCount
)

// QueryOrder is the order in which settings are read from the module and
// restored to it.
var QueryOrder = [...]ConfigField{FieldUart, FieldName, FieldPassword, FieldRole}

// label is the parameter name the module uses on the wire.
func (f ConfigField) label() string {
	switch f {
	case FieldUart:
		return "UART"
	case FieldName:
		return "NAME"
	case FieldPassword:
		return "PSWD"
	case FieldRole:
		return "ROLE"
	default:
		return "UNKNOWN"
	}
}

func (f ConfigField) String() string {
	return f.label()
}

// Query builds the command that reads this setting, e.g. "AT+UART?".
func (f ConfigField) Query() string {
	return "AT+" + f.label() + "?"
}

// ReplyPrefix is the label opening a reply to this setting's query,
// e.g. "+UART:". Replies carrying another label answer another query.
func (f ConfigField) ReplyPrefix() string {
	return "+" + f.label() + ":"
}

// Set builds the command that writes this setting, e.g. "AT+UART=9600,0,0".
func (f ConfigField) Set(value string) string {
	return "AT+" + f.label() + "=" + value
}
