package request

import (
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// HttpClient is the generic data-access surface the UI layer drives over
// the bridge: conversations, messages, membership and read receipts are all
// plain authorized requests against the backend's REST endpoints.
type HttpClient interface {
	Authorize(clientQuery string) string
	GetRequest(
		endpoint string,
		method string,
		useAuthorizeHeader bool,
		query string,
		body string,
		filePartName string,
		fileName string,
		filePath string,
	) string
	SendLogFileWithBodyText(bodyText string) string
	SendLogFileWithPath(path string, bodyText string) string
}

type Params struct {
	userAgent        string
	endpoint         string
	client           *http.Client
	refreshCountCall int
}

type HttpClientStruct struct {
	params *Params
}

func New(
	endpoint string,
	platform string,
	version interface{},
	versionName interface{},
	buildNumber interface{},
) *HttpClientStruct {
	log.Infof("++ %v %v %v %v %v", endpoint, platform, version, versionName, buildNumber)
	return &HttpClientStruct{
		params: &Params{
			userAgent: fmt.Sprintf("%s %s/app %s (%s)", platform, version, versionName, buildNumber),
			endpoint:  endpoint,
			client:    &http.Client{},
		},
	}
}

func (h *HttpClientStruct) GetRequest(
	endpoint string,
	method string,
	useAuthorizeHeader bool,
	query string,
	body string,
	filePartName string,
	fileName string,
	filePath string,
) string {
	var fileParam *requestFile = nil
	if len(filePath) > 0 {
		if len(fileName) == 0 {
			fileName = "voice_note"
		}
		if len(filePartName) == 0 {
			filePartName = "file"
		}
		fileParam = &requestFile{
			part: filePartName,
			path: filePath,
			name: fileName,
		}
	}
	var bodyParam *requestBody = nil
	if len(body) > 0 {
		bodyParam = &requestBody{
			part: "",
			data: body,
		}
	}
	return h.makeRequest(requestParams{
		endpoint:           endpoint,
		method:             method,
		useAuthorizeHeader: useAuthorizeHeader,
		query:              query,
		body:               bodyParam,
		file:               fileParam,
	})
}
