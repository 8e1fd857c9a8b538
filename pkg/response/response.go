package response

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the envelope every API endpoint writes.
type Response struct {
	Status     string      `json:"status"`
	StatusCode int         `json:"status_code"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func Success(statusCode int, data interface{}) Response {
	return Response{Status: StatusSuccess, StatusCode: statusCode, Data: data}
}

func Error(statusCode int, err string) Response {
	return Response{Status: StatusError, StatusCode: statusCode, Error: err}
}

// ErrorWithData is an error that carries remediation data, such as the shortage
// list of a rejected submission.
func ErrorWithData(statusCode int, err string, data interface{}) Response {
	return Response{Status: StatusError, StatusCode: statusCode, Data: data, Error: err}
}

// Paged wraps one page of a listing under key together with its window.
func Paged(key string, data interface{}, total int64, page, limit int) map[string]interface{} {
	return map[string]interface{}{
		key:     data,
		"total": total,
		"page":  page,
		"limit": limit,
	}
}
