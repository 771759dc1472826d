package at

const (
	// Terminal Control
	CRLF = "\r\n"

	// Response Codes
	OK   = "OK"
	Fail = "FAIL"
	// Error is a prefix; the module appends a code, e.g. "ERROR:(0)".
	Error = "ERROR"

	// Session Commands
	CmdFactoryReset = "AT+ORGL"
	CmdInitialize   = "AT+INIT"
)

type ResponseType int

const (
	TypeFinal ResponseType = iota // OK, ERROR:(n), FAIL
	TypeData                      // Configuration reply (+UART:9600,0,0)
)
