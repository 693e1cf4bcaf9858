package timeapi

// currentTimeResponse is the body of /api/time/current/zone. Numeric fields
// are pointers so a missing key fails "required" instead of decoding as 0.
type currentTimeResponse struct {
	Year         *int   `json:"year" validate:"required,min=1"`
	Month        *int   `json:"month" validate:"required,min=1,max=12"`
	Day          *int   `json:"day" validate:"required,min=1,max=31"`
	Hour         *int   `json:"hour" validate:"required,min=0,max=23"`
	Minute       *int   `json:"minute" validate:"required,min=0,max=59"`
	Seconds      *int   `json:"seconds" validate:"required,min=0,max=59"`
	MilliSeconds *int   `json:"milliSeconds" validate:"required,min=0,max=999"`
	DateTime     string `json:"dateTime"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	TimeZone     string `json:"timeZone" validate:"required"`
	DayOfWeek    string `json:"dayOfWeek"`
	DSTActive    bool   `json:"dstActive"`
}
