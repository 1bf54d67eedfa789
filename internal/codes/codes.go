package codes

// ErrorCodes maps lessc exit codes to their descriptions. 126 and 127 are
// reported by the shell when the executable cannot be launched.
var ErrorCodes = map[int]string{
	0:   "Success",
	1:   "Compile errors",
	126: "lessc is not executable",
	127: "lessc not found",
}

// IsSuccess returns true if the exit code indicates successful compilation
func IsSuccess(code int) bool {
	return code == 0
}

// IsLaunchFailure returns true if the exit code means lessc never ran
func IsLaunchFailure(code int) bool {
	return code == 126 || code == 127
}

// GetErrorMessage returns the error message for a given exit code, or a generic message if unknown
func GetErrorMessage(code int) string {
	if msg, ok := ErrorCodes[code]; ok {
		return msg
	}

	return "Unknown error"
}
