package xhttp

import "net/http"

const (
	Accept          = "Accept"
	ContentType     = "Content-Type"
	UserAgent       = "User-Agent"
	ApplicationJSON = "application/json"
	ImagePNG        = "image/png"
)

func SetRequestHeaderAcceptJSON(req *http.Request) {
	req.Header.Set(Accept, ApplicationJSON)
}
